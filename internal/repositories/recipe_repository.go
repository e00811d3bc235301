package repositories

import (
	"context"

	"recipeapi/internal/models"
)

// RecipeFilter narrows a recipe listing. Within each list a recipe matches
// if it references any of the IDs; both lists must match when both are set.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// LinkChanges lists the join rows to add to and remove from a recipe.
type LinkChanges struct {
	AddTags           []models.Tag
	RemoveTags        []models.Tag
	AddIngredients    []models.Ingredient
	RemoveIngredients []models.Ingredient
}

// Empty reports whether there is nothing to change.
func (c LinkChanges) Empty() bool {
	return len(c.AddTags) == 0 && len(c.RemoveTags) == 0 &&
		len(c.AddIngredients) == 0 && len(c.RemoveIngredients) == 0
}

// RecipeRepository defines the interface for recipe data access.
type RecipeRepository interface {
	ListByOwner(ctx context.Context, ownerID uint, filter RecipeFilter) ([]models.Recipe, error)
	// GetOwned returns the recipe with its tags and ingredients, or a not
	// found error when it does not exist or belongs to another user.
	GetOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error)
	// Create inserts the recipe and links the tags and ingredients it carries.
	Create(ctx context.Context, recipe *models.Recipe) error
	// Update saves the recipe columns and applies the link changes atomically.
	Update(ctx context.Context, recipe *models.Recipe, links LinkChanges) error
	Delete(ctx context.Context, recipe *models.Recipe) error
	SetImage(ctx context.Context, recipe *models.Recipe, path string) error
}
