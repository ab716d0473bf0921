// Package projection selects the response shape for recipe payloads. The
// shape is a pure function of the handler action: single-object retrieval
// expands related tags and ingredients into nested objects, every other
// action renders them as bare ID lists.
package projection

import (
	"github.com/EgehanGundogdu/api-recipe/internal/model"

	"github.com/labstack/echo/v4"
)

// Action labels the handler operation being rendered.
type Action int

const (
	List Action = iota
	Create
	Retrieve
	Update
	Upload
)

// Shape describes how a recipe payload is rendered.
type Shape struct {
	// ExpandRelations renders tags and ingredients as nested {id, name}
	// objects instead of ID lists.
	ExpandRelations bool
}

var shapes = map[Action]Shape{
	List:     {},
	Create:   {},
	Retrieve: {ExpandRelations: true},
	Update:   {},
	Upload:   {},
}

// For returns the response shape for an action.
func For(action Action) Shape {
	return shapes[action]
}

// Ref is the expanded rendering of a related tag or ingredient.
type Ref struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Recipe renders a single recipe in the given shape.
func Recipe(r *model.Recipe, shape Shape) echo.Map {
	view := echo.Map{
		"id":           r.ID,
		"name":         r.Name,
		"owner_id":     r.OwnerID,
		"cook_minutes": r.CookMinutes,
		"price":        r.Price,
		"link":         r.Link,
		"image":        r.Image,
		"created_at":   r.CreatedAt,
		"updated_at":   r.UpdatedAt,
	}

	if shape.ExpandRelations {
		tags := make([]Ref, 0, len(r.Tags))
		for _, t := range r.Tags {
			tags = append(tags, Ref{ID: t.ID, Name: t.Name})
		}
		ingredients := make([]Ref, 0, len(r.Ingredients))
		for _, i := range r.Ingredients {
			ingredients = append(ingredients, Ref{ID: i.ID, Name: i.Name})
		}
		view["tags"] = tags
		view["ingredients"] = ingredients
		return view
	}

	tagIDs := make([]uint, 0, len(r.Tags))
	for _, t := range r.Tags {
		tagIDs = append(tagIDs, t.ID)
	}
	ingredientIDs := make([]uint, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		ingredientIDs = append(ingredientIDs, i.ID)
	}
	view["tags"] = tagIDs
	view["ingredients"] = ingredientIDs
	return view
}

// Recipes renders a recipe collection in the given shape.
func Recipes(rs []model.Recipe, shape Shape) []echo.Map {
	views := make([]echo.Map, 0, len(rs))
	for i := range rs {
		views = append(views, Recipe(&rs[i], shape))
	}
	return views
}
