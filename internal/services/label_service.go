package services

import (
	"context"
	"strings"

	"recipeapi/internal/models"
	"recipeapi/internal/repositories"
	"recipeapi/internal/validation"
)

// labelPtr constrains PT to a pointer to T that behaves as a models.Label.
type labelPtr[T any] interface {
	*T
	models.Label
}

// ListLabelsOptions narrows a label listing.
type ListLabelsOptions struct {
	// AssignedOnly limits the result to labels used by at least one recipe.
	AssignedOnly bool
}

// LabelService handles the user-owned labels recipes refer to.
type LabelService[T any, PT labelPtr[T]] struct {
	repo     repositories.LabelRepository[T]
	validate *validation.Validator
}

// TagService manages tags.
type TagService = LabelService[models.Tag, *models.Tag]

// IngredientService manages ingredients.
type IngredientService = LabelService[models.Ingredient, *models.Ingredient]

// NewLabelService creates a new LabelService.
func NewLabelService[T any, PT labelPtr[T]](repo repositories.LabelRepository[T]) *LabelService[T, PT] {
	return &LabelService[T, PT]{
		repo:     repo,
		validate: validation.New(),
	}
}

// NewTagService creates the tag service.
func NewTagService(repo repositories.LabelRepository[models.Tag]) *TagService {
	return NewLabelService[models.Tag, *models.Tag](repo)
}

// NewIngredientService creates the ingredient service.
func NewIngredientService(repo repositories.LabelRepository[models.Ingredient]) *IngredientService {
	return NewLabelService[models.Ingredient, *models.Ingredient](repo)
}

// List returns the owner's labels.
func (s *LabelService[T, PT]) List(ctx context.Context, ownerID uint, opts ListLabelsOptions) ([]T, error) {
	return s.repo.ListByOwner(ctx, ownerID, opts.AssignedOnly)
}

// Create stores a new label called name for ownerID. The ID is always
// assigned by the store.
func (s *LabelService[T, PT]) Create(ctx context.Context, ownerID uint, name string) (PT, error) {
	label := PT(new(T))
	label.SetLabelName(strings.TrimSpace(name))
	if err := s.validate.Struct(label); err != nil {
		return nil, err
	}
	label.AssignOwner(ownerID)

	if err := s.repo.Create(ctx, (*T)(label)); err != nil {
		return nil, err
	}
	return label, nil
}
