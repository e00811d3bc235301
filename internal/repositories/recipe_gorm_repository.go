package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recipeapi/internal/apperror"
	"recipeapi/internal/models"
)

var recipeColumns = []string{"title", "time_minutes", "price", "link", "image"}

// GORMRecipeRepository is a GORM implementation of RecipeRepository.
type GORMRecipeRepository struct {
	db *gorm.DB
}

// NewGORMRecipeRepository creates a new instance of GORMRecipeRepository.
func NewGORMRecipeRepository(db *gorm.DB) *GORMRecipeRepository {
	return &GORMRecipeRepository{
		db: db,
	}
}

func byID(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id")
	}
}

func (r *GORMRecipeRepository) withLinks(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", byID("tags")).
		Preload("Ingredients", byID("ingredients"))
}

// ListByOwner retrieves the owner's recipes ordered by ID.
func (r *GORMRecipeRepository) ListByOwner(ctx context.Context, ownerID uint, filter RecipeFilter) ([]models.Recipe, error) {
	recipes := []models.Recipe{}
	q := r.withLinks(ctx).Where("recipes.user_id = ?", ownerID)
	if len(filter.TagIDs) > 0 {
		tagged := r.db.Table(TagTable.JoinTable).Select("recipe_id").Where("tag_id IN ?", filter.TagIDs)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if len(filter.IngredientIDs) > 0 {
		using := r.db.Table(IngredientTable.JoinTable).Select("recipe_id").Where("ingredient_id IN ?", filter.IngredientIDs)
		q = q.Where("recipes.id IN (?)", using)
	}
	if err := q.Order("recipes.id").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// GetOwned retrieves one of the owner's recipes.
func (r *GORMRecipeRepository) GetOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.withLinks(ctx).First(&recipe, "recipes.id = ? AND recipes.user_id = ?", id, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("failed to get recipe by ID %d: %w", id, err)
	}
	return &recipe, nil
}

// Create creates a new recipe and its tag and ingredient links.
func (r *GORMRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	tags, ingredients := recipe.Tags, recipe.Ingredients
	recipe.Tags, recipe.Ingredients = nil, nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		return applyLinks(tx, recipe, LinkChanges{AddTags: tags, AddIngredients: ingredients})
	})
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// Update updates an existing recipe in the database.
func (r *GORMRecipeRepository) Update(ctx context.Context, recipe *models.Recipe, links LinkChanges) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(recipe).Select(recipeColumns).Updates(recipe)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("recipe", recipe.ID)
		}
		return applyLinks(tx, recipe, links)
	})
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	return nil
}

// Delete deletes a recipe along with its join rows.
func (r *GORMRecipeRepository) Delete(ctx context.Context, recipe *models.Recipe) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&models.Recipe{}, "id = ?", recipe.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("recipe", recipe.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// SetImage stores the path of the recipe's uploaded image.
func (r *GORMRecipeRepository) SetImage(ctx context.Context, recipe *models.Recipe, path string) error {
	res := r.db.WithContext(ctx).Model(recipe).Update("image", path)
	if res.Error != nil {
		return fmt.Errorf("failed to set image for recipe %d: %w", recipe.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("recipe", recipe.ID)
	}
	return nil
}

func applyLinks(tx *gorm.DB, recipe *models.Recipe, links LinkChanges) error {
	if len(links.RemoveTags) > 0 {
		if err := tx.Model(recipe).Association("Tags").Delete(links.RemoveTags); err != nil {
			return fmt.Errorf("removing tags: %w", err)
		}
	}
	if len(links.AddTags) > 0 {
		if err := tx.Model(recipe).Association("Tags").Append(links.AddTags); err != nil {
			return fmt.Errorf("adding tags: %w", err)
		}
	}
	if len(links.RemoveIngredients) > 0 {
		if err := tx.Model(recipe).Association("Ingredients").Delete(links.RemoveIngredients); err != nil {
			return fmt.Errorf("removing ingredients: %w", err)
		}
	}
	if len(links.AddIngredients) > 0 {
		if err := tx.Model(recipe).Association("Ingredients").Append(links.AddIngredients); err != nil {
			return fmt.Errorf("adding ingredients: %w", err)
		}
	}
	return nil
}
