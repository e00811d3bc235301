package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"recipeapi/internal/apperror"
	"recipeapi/internal/models"
	"recipeapi/internal/repositories"
	"recipeapi/internal/storage"
	"recipeapi/internal/validation"
)

const invalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

var maxPrice = decimal.RequireFromString("999.99")

// RecipeInput is the writable part of a recipe. On create and full update
// title, time_minutes and price are required; on partial update nil fields
// are left unchanged.
type RecipeInput struct {
	Title       *string          `json:"title"`
	TimeMinutes *int             `json:"time_minutes"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link"`
	Tags        *[]uint          `json:"tags"`
	Ingredients *[]uint          `json:"ingredients"`
}

// ImageUpload is a file received for a recipe.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// ImageStore persists uploaded images.
type ImageStore interface {
	SaveImage(filename string, data []byte) (string, error)
	Delete(path string) error
}

// RecipeService handles business logic for recipes.
type RecipeService struct {
	recipes     repositories.RecipeRepository
	tags        repositories.LabelRepository[models.Tag]
	ingredients repositories.LabelRepository[models.Ingredient]
	images      ImageStore
	events      EventPublisher
	validate    *validation.Validator
}

// NewRecipeService creates a new RecipeService. events may be nil.
func NewRecipeService(
	recipes repositories.RecipeRepository,
	tags repositories.LabelRepository[models.Tag],
	ingredients repositories.LabelRepository[models.Ingredient],
	images ImageStore,
	events EventPublisher,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		images:      images,
		events:      events,
		validate:    validation.New(),
	}
}

// List returns the owner's recipes ordered by ID.
func (s *RecipeService) List(ctx context.Context, ownerID uint, filter repositories.RecipeFilter) ([]models.Recipe, error) {
	return s.recipes.ListByOwner(ctx, ownerID, filter)
}

// Get returns one of the owner's recipes.
func (s *RecipeService) Get(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	return s.recipes.GetOwned(ctx, ownerID, id)
}

// Create validates in and stores a new recipe for ownerID.
func (s *RecipeService) Create(ctx context.Context, ownerID uint, in RecipeInput) (*models.Recipe, error) {
	recipe := &models.Recipe{UserID: ownerID}
	tags, ingredients, err := s.apply(ctx, recipe, in, false)
	if err != nil {
		return nil, err
	}
	recipe.Tags = tags
	recipe.Ingredients = ingredients

	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"recipe_id": recipe.ID, "user_id": ownerID}).Info("Recipe created")
	publishRecipeEvent(s.events, EventRecipeCreated, recipe)
	return s.recipes.GetOwned(ctx, ownerID, recipe.ID)
}

// Update replaces the writable fields of a recipe. With partial set only
// the non-nil fields of in are applied. A full update that omits tags or
// ingredients clears them.
func (s *RecipeService) Update(ctx context.Context, ownerID, id uint, in RecipeInput, partial bool) (*models.Recipe, error) {
	recipe, err := s.recipes.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !partial {
		if in.Tags == nil {
			in.Tags = &[]uint{}
		}
		if in.Ingredients == nil {
			in.Ingredients = &[]uint{}
		}
	}

	current := *recipe
	tags, ingredients, err := s.apply(ctx, recipe, in, partial)
	if err != nil {
		return nil, err
	}

	var links repositories.LinkChanges
	if in.Tags != nil {
		links.AddTags, links.RemoveTags = diffLabels(current.Tags, tags, func(t models.Tag) uint { return t.ID })
	}
	if in.Ingredients != nil {
		links.AddIngredients, links.RemoveIngredients = diffLabels(current.Ingredients, ingredients, func(i models.Ingredient) uint { return i.ID })
	}

	if err := s.recipes.Update(ctx, recipe, links); err != nil {
		return nil, err
	}
	publishRecipeEvent(s.events, EventRecipeUpdated, recipe)
	return s.recipes.GetOwned(ctx, ownerID, id)
}

// Delete removes one of the owner's recipes and its stored image.
func (s *RecipeService) Delete(ctx context.Context, ownerID, id uint) error {
	recipe, err := s.recipes.GetOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipe); err != nil {
		return err
	}
	if recipe.Image != "" && s.images != nil {
		if err := s.images.Delete(recipe.Image); err != nil {
			log.WithError(err).WithField("recipe_id", id).Warn("Failed to remove recipe image")
		}
	}
	publishRecipeEvent(s.events, EventRecipeDeleted, recipe)
	return nil
}

// AddTags links the owner's tags to a recipe. Tags already linked are kept.
func (s *RecipeService) AddTags(ctx context.Context, ownerID, id uint, tagIDs []uint) (*models.Recipe, error) {
	return s.relink(ctx, ownerID, id, func(recipe *models.Recipe) (repositories.LinkChanges, error) {
		tags, err := resolveLabels(ctx, s.tags, ownerID, tagIDs, "tags", func(t models.Tag) uint { return t.ID })
		if err != nil {
			return repositories.LinkChanges{}, err
		}
		add, _ := diffLabels(recipe.Tags, append(append([]models.Tag{}, recipe.Tags...), tags...), func(t models.Tag) uint { return t.ID })
		return repositories.LinkChanges{AddTags: add}, nil
	})
}

// RemoveTags unlinks tags from a recipe. The tags themselves are kept.
func (s *RecipeService) RemoveTags(ctx context.Context, ownerID, id uint, tagIDs []uint) (*models.Recipe, error) {
	return s.relink(ctx, ownerID, id, func(recipe *models.Recipe) (repositories.LinkChanges, error) {
		return repositories.LinkChanges{RemoveTags: pickLabels(recipe.Tags, tagIDs, func(t models.Tag) uint { return t.ID })}, nil
	})
}

// AddIngredients links the owner's ingredients to a recipe.
func (s *RecipeService) AddIngredients(ctx context.Context, ownerID, id uint, ingredientIDs []uint) (*models.Recipe, error) {
	return s.relink(ctx, ownerID, id, func(recipe *models.Recipe) (repositories.LinkChanges, error) {
		ingredients, err := resolveLabels(ctx, s.ingredients, ownerID, ingredientIDs, "ingredients", func(i models.Ingredient) uint { return i.ID })
		if err != nil {
			return repositories.LinkChanges{}, err
		}
		add, _ := diffLabels(recipe.Ingredients, append(append([]models.Ingredient{}, recipe.Ingredients...), ingredients...), func(i models.Ingredient) uint { return i.ID })
		return repositories.LinkChanges{AddIngredients: add}, nil
	})
}

// RemoveIngredients unlinks ingredients from a recipe.
func (s *RecipeService) RemoveIngredients(ctx context.Context, ownerID, id uint, ingredientIDs []uint) (*models.Recipe, error) {
	return s.relink(ctx, ownerID, id, func(recipe *models.Recipe) (repositories.LinkChanges, error) {
		return repositories.LinkChanges{RemoveIngredients: pickLabels(recipe.Ingredients, ingredientIDs, func(i models.Ingredient) uint { return i.ID })}, nil
	})
}

func (s *RecipeService) relink(ctx context.Context, ownerID, id uint, changes func(*models.Recipe) (repositories.LinkChanges, error)) (*models.Recipe, error) {
	recipe, err := s.recipes.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	links, err := changes(recipe)
	if err != nil {
		return nil, err
	}
	if links.Empty() {
		return recipe, nil
	}
	if err := s.recipes.Update(ctx, recipe, links); err != nil {
		return nil, err
	}
	publishRecipeEvent(s.events, EventRecipeUpdated, recipe)
	return s.recipes.GetOwned(ctx, ownerID, id)
}

// UploadImage validates and stores an image for one of the owner's recipes,
// replacing any previous image.
func (s *RecipeService) UploadImage(ctx context.Context, ownerID, id uint, upload ImageUpload) (*models.Recipe, error) {
	recipe, err := s.recipes.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if len(upload.Data) == 0 {
		return nil, apperror.ValidationFailed("image", "No file was submitted.")
	}

	path, err := s.images.SaveImage(upload.Filename, upload.Data)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) || errors.Is(err, storage.ErrEmptyFile) {
			return nil, apperror.ValidationFailed("image", invalidImage)
		}
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	previous := recipe.Image
	if err := s.recipes.SetImage(ctx, recipe, path); err != nil {
		if delErr := s.images.Delete(path); delErr != nil {
			log.WithError(delErr).WithField("path", path).Warn("Failed to remove orphaned image")
		}
		return nil, err
	}
	recipe.Image = path

	if previous != "" && previous != path {
		if err := s.images.Delete(previous); err != nil {
			log.WithError(err).WithField("path", previous).Warn("Failed to remove replaced image")
		}
	}
	log.WithFields(log.Fields{"recipe_id": id, "path": path}).Info("Recipe image stored")
	publishRecipeEvent(s.events, EventRecipeImageUploaded, recipe)
	return recipe, nil
}

// apply copies in onto recipe, validates the result and resolves the
// referenced tags and ingredients. All field errors are reported together.
func (s *RecipeService) apply(ctx context.Context, recipe *models.Recipe, in RecipeInput, partial bool) ([]models.Tag, []models.Ingredient, error) {
	fields := map[string]string{}
	if !partial {
		if in.Title == nil {
			fields["title"] = "This field is required."
		}
		if in.TimeMinutes == nil {
			fields["time_minutes"] = "This field is required."
		}
		if in.Price == nil {
			fields["price"] = "This field is required."
		}
	}
	if len(fields) > 0 {
		return nil, nil, apperror.ValidationWithFields(fields)
	}

	if in.Title != nil {
		recipe.Title = strings.TrimSpace(*in.Title)
	}
	if in.TimeMinutes != nil {
		recipe.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		recipe.Price = *in.Price
	}
	if in.Link != nil {
		recipe.Link = strings.TrimSpace(*in.Link)
	}

	if err := s.validate.Struct(recipe); err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			return nil, nil, err
		}
		for k, v := range appErr.Fields {
			fields[k] = v
		}
	}
	if msg := validatePrice(recipe.Price); msg != "" {
		fields["price"] = msg
	}

	tags, ingredients := recipe.Tags, recipe.Ingredients
	if in.Tags != nil {
		resolved, err := resolveLabels(ctx, s.tags, recipe.UserID, *in.Tags, "tags", func(t models.Tag) uint { return t.ID })
		if err != nil {
			if !mergeFields(fields, err) {
				return nil, nil, err
			}
		}
		tags = resolved
	}
	if in.Ingredients != nil {
		resolved, err := resolveLabels(ctx, s.ingredients, recipe.UserID, *in.Ingredients, "ingredients", func(i models.Ingredient) uint { return i.ID })
		if err != nil {
			if !mergeFields(fields, err) {
				return nil, nil, err
			}
		}
		ingredients = resolved
	}

	if len(fields) > 0 {
		return nil, nil, apperror.ValidationWithFields(fields)
	}
	return tags, ingredients, nil
}

// validatePrice enforces a decimal(5,2) price between 0 and 999.99.
func validatePrice(p decimal.Decimal) string {
	switch {
	case p.IsNegative():
		return "Ensure this value is greater than or equal to 0."
	case !p.Equal(p.Round(2)):
		return "Ensure that there are no more than 2 decimal places."
	case p.GreaterThan(maxPrice):
		return "Ensure that there are no more than 5 digits in total."
	}
	return ""
}

func mergeFields(fields map[string]string, err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
		return false
	}
	for k, v := range appErr.Fields {
		fields[k] = v
	}
	return true
}

// resolveLabels loads the owner's labels with the given IDs. An ID that is
// unknown or owned by someone else is a validation error on field.
func resolveLabels[T any](ctx context.Context, repo repositories.LabelRepository[T], ownerID uint, ids []uint, field string, idOf func(T) uint) ([]T, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return []T{}, nil
	}

	found, err := repo.GetOwnedByIDs(ctx, ownerID, unique)
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		have := make(map[uint]bool, len(found))
		for _, l := range found {
			have[idOf(l)] = true
		}
		for _, id := range unique {
			if !have[id] {
				return nil, apperror.ValidationFailed(field, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			}
		}
	}
	return found, nil
}

// diffLabels returns the labels of wanted missing from current, and those of
// current missing from wanted.
func diffLabels[T any](current, wanted []T, idOf func(T) uint) (add, remove []T) {
	inCurrent := make(map[uint]bool, len(current))
	for _, l := range current {
		inCurrent[idOf(l)] = true
	}
	inWanted := make(map[uint]bool, len(wanted))
	for _, l := range wanted {
		id := idOf(l)
		if !inCurrent[id] && !inWanted[id] {
			add = append(add, l)
		}
		inWanted[id] = true
	}
	for _, l := range current {
		if !inWanted[idOf(l)] {
			remove = append(remove, l)
		}
	}
	return add, remove
}

// pickLabels returns the labels whose ID is in ids.
func pickLabels[T any](labels []T, ids []uint, idOf func(T) uint) []T {
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var picked []T
	for _, l := range labels {
		if want[idOf(l)] {
			picked = append(picked, l)
		}
	}
	return picked
}
