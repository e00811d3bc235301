package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"recipeapi/internal/middleware"
	"recipeapi/internal/models"
	"recipeapi/internal/services"
)

// LabelService is the part of a label service the handler needs.
type LabelService[T any] interface {
	List(ctx context.Context, ownerID uint, opts services.ListLabelsOptions) ([]T, error)
	Create(ctx context.Context, ownerID uint, name string) (*T, error)
}

// labelInput is the writable part of a label; the ID is read-only.
type labelInput struct {
	Name string `json:"name"`
}

// LabelHandler handles HTTP requests for one kind of label (tags or
// ingredients).
type LabelHandler[T any] struct {
	service LabelService[T]
	path    string
	noun    string
}

// NewLabelHandler creates a handler serving service under path.
func NewLabelHandler[T any](path, noun string, service LabelService[T]) *LabelHandler[T] {
	return &LabelHandler[T]{
		service: service,
		path:    path,
		noun:    noun,
	}
}

// NewTagHandler creates the handler for /tags.
func NewTagHandler(service *services.TagService) *LabelHandler[models.Tag] {
	return NewLabelHandler[models.Tag]("/tags", "tags", service)
}

// NewIngredientHandler creates the handler for /ingredients.
func NewIngredientHandler(service *services.IngredientService) *LabelHandler[models.Ingredient] {
	return NewLabelHandler[models.Ingredient]("/ingredients", "ingredients", service)
}

// RegisterRoutes registers the label routes on an authenticated router.
func (h *LabelHandler[T]) RegisterRoutes(router fiber.Router) {
	labelRoutes := router.Group(h.path)
	labelRoutes.Get("/", h.HandleList)
	labelRoutes.Post("/", h.HandleCreate)
}

// HandleList lists the caller's labels. ?assigned_only=1 keeps only labels
// used by a recipe.
func (h *LabelHandler[T]) HandleList(c *fiber.Ctx) error {
	assignedOnly, err := queryFlag(c, "assigned_only")
	if err != nil {
		return respondError(c, err, "list "+h.noun)
	}

	labels, err := h.service.List(c.UserContext(), middleware.CurrentUser(c).ID, services.ListLabelsOptions{
		AssignedOnly: assignedOnly,
	})
	if err != nil {
		return respondError(c, err, "list "+h.noun)
	}
	return c.JSON(labels)
}

// HandleCreate creates a label owned by the caller.
func (h *LabelHandler[T]) HandleCreate(c *fiber.Ctx) error {
	var input labelInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c, err)
	}

	created, err := h.service.Create(c.UserContext(), middleware.CurrentUser(c).ID, input.Name)
	if err != nil {
		return respondError(c, err, "create "+h.noun)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}
