package projection

import (
	"testing"

	"github.com/EgehanGundogdu/api-recipe/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecipe() *model.Recipe {
	return &model.Recipe{
		ID:      1,
		Name:    "Recipe sample",
		OwnerID: 7,
		Tags: []model.Tag{
			{ID: 3, Name: "Desert"},
			{ID: 5, Name: "Sour"},
		},
		Ingredients: []model.Ingredient{
			{ID: 2, Name: "Sugar"},
		},
	}
}

func TestForIsDeterministic(t *testing.T) {
	actions := []Action{List, Create, Retrieve, Update, Upload}
	for _, a := range actions {
		assert.Equal(t, For(a), For(a))
	}

	// Only single-object retrieval expands relations
	assert.True(t, For(Retrieve).ExpandRelations)
	assert.False(t, For(List).ExpandRelations)
	assert.False(t, For(Create).ExpandRelations)
	assert.False(t, For(Update).ExpandRelations)
	assert.False(t, For(Upload).ExpandRelations)
}

func TestRecipeListShape(t *testing.T) {
	view := Recipe(sampleRecipe(), For(List))

	tags, ok := view["tags"].([]uint)
	require.True(t, ok)
	assert.Equal(t, []uint{3, 5}, tags)

	ingredients, ok := view["ingredients"].([]uint)
	require.True(t, ok)
	assert.Equal(t, []uint{2}, ingredients)
}

func TestRecipeDetailShape(t *testing.T) {
	view := Recipe(sampleRecipe(), For(Retrieve))

	tags, ok := view["tags"].([]Ref)
	require.True(t, ok)
	assert.Equal(t, []Ref{{ID: 3, Name: "Desert"}, {ID: 5, Name: "Sour"}}, tags)

	ingredients, ok := view["ingredients"].([]Ref)
	require.True(t, ok)
	assert.Equal(t, []Ref{{ID: 2, Name: "Sugar"}}, ingredients)
}

func TestRecipeEmptyAssociations(t *testing.T) {
	r := &model.Recipe{ID: 1, Name: "Bare"}

	list := Recipe(r, For(List))
	assert.Equal(t, []uint{}, list["tags"])
	assert.Equal(t, []uint{}, list["ingredients"])

	detail := Recipe(r, For(Retrieve))
	assert.Equal(t, []Ref{}, detail["tags"])
	assert.Equal(t, []Ref{}, detail["ingredients"])
}

func TestRecipes(t *testing.T) {
	views := Recipes([]model.Recipe{*sampleRecipe(), {ID: 9, Name: "Other"}}, For(List))
	require.Len(t, views, 2)
	assert.EqualValues(t, uint(1), views[0]["id"])
	assert.EqualValues(t, uint(9), views[1]["id"])
}
