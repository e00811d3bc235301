package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"recipeapi/internal/apperror"
	"recipeapi/internal/metrics"
	"recipeapi/internal/middleware"
	"recipeapi/internal/models"
	"recipeapi/internal/repositories"
	"recipeapi/internal/services"
)

// RecipeHandler handles HTTP requests for recipes.
type RecipeHandler struct {
	service        *services.RecipeService
	metrics        *metrics.Metrics
	mediaURL       string
	maxUploadBytes int64
}

// NewRecipeHandler creates a new RecipeHandler. Image paths are rendered
// below mediaURL.
func NewRecipeHandler(service *services.RecipeService, m *metrics.Metrics, mediaURL string, maxUploadBytes int64) *RecipeHandler {
	return &RecipeHandler{
		service:        service,
		metrics:        m,
		mediaURL:       mediaURL,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers the recipe routes on an authenticated router
// mounted at /recipes.
func (h *RecipeHandler) RegisterRoutes(recipeRoutes fiber.Router) {
	recipeRoutes.Get("/", h.HandleList)
	recipeRoutes.Post("/", h.HandleCreate)
	recipeRoutes.Get("/:id", h.HandleGet)
	recipeRoutes.Put("/:id", h.HandleUpdate)
	recipeRoutes.Patch("/:id", h.HandlePartialUpdate)
	recipeRoutes.Delete("/:id", h.HandleDelete)
	recipeRoutes.Post("/:id/upload-image", h.HandleUploadImage)

	recipeRoutes.Post("/:id/tags", h.linkHandler("tags", h.service.AddTags))
	recipeRoutes.Delete("/:id/tags", h.linkHandler("tags", h.service.RemoveTags))
	recipeRoutes.Post("/:id/ingredients", h.linkHandler("ingredients", h.service.AddIngredients))
	recipeRoutes.Delete("/:id/ingredients", h.linkHandler("ingredients", h.service.RemoveIngredients))
}

type linkFunc func(ctx context.Context, ownerID, id uint, labelIDs []uint) (*models.Recipe, error)

// linkHandler links or unlinks the labels named by ?ids=1,2 and responds
// with the recipe detail.
func (h *RecipeHandler) linkHandler(noun string, link linkFunc) fiber.Handler {
	action := "update recipe " + noun
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return respondError(c, err, action)
		}
		ids, err := queryIDs(c, "ids")
		if err != nil {
			return respondError(c, err, action)
		}
		recipe, err := link(c.UserContext(), middleware.CurrentUser(c).ID, id, ids)
		if err != nil {
			return respondError(c, err, action)
		}
		return c.JSON(h.newRecipeDetail(recipe))
	}
}

// recipeListItem is the list representation: labels by ID only.
type recipeListItem struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Price       string `json:"price"`
	Link        string `json:"link"`
	Tags        []uint `json:"tags"`
	Ingredients []uint `json:"ingredients"`
}

type labelRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// recipeDetail is the expanded single-recipe representation.
type recipeDetail struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	TimeMinutes int        `json:"time_minutes"`
	Price       string     `json:"price"`
	Link        string     `json:"link"`
	Image       *string    `json:"image"`
	Tags        []labelRef `json:"tags"`
	Ingredients []labelRef `json:"ingredients"`
}

type recipeImage struct {
	ID    uint    `json:"id"`
	Image *string `json:"image"`
}

func newRecipeListItem(r *models.Recipe) recipeListItem {
	return recipeListItem{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        r.TagIDs(),
		Ingredients: r.IngredientIDs(),
	}
}

func (h *RecipeHandler) newRecipeDetail(r *models.Recipe) recipeDetail {
	d := recipeDetail{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Image:       h.imageURL(r.Image),
		Tags:        make([]labelRef, 0, len(r.Tags)),
		Ingredients: make([]labelRef, 0, len(r.Ingredients)),
	}
	for _, t := range r.Tags {
		d.Tags = append(d.Tags, labelRef{ID: t.ID, Name: t.Name})
	}
	for _, i := range r.Ingredients {
		d.Ingredients = append(d.Ingredients, labelRef{ID: i.ID, Name: i.Name})
	}
	return d
}

func (h *RecipeHandler) imageURL(p string) *string {
	if p == "" {
		return nil
	}
	url := path.Join(h.mediaURL, p)
	return &url
}

// HandleList lists the caller's recipes, optionally filtered by
// ?tags=1,2 and ?ingredients=3.
func (h *RecipeHandler) HandleList(c *fiber.Ctx) error {
	tagIDs, err := queryIDs(c, "tags")
	if err != nil {
		return respondError(c, err, "list recipes")
	}
	ingredientIDs, err := queryIDs(c, "ingredients")
	if err != nil {
		return respondError(c, err, "list recipes")
	}

	recipes, err := h.service.List(c.UserContext(), middleware.CurrentUser(c).ID, repositories.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return respondError(c, err, "list recipes")
	}

	items := make([]recipeListItem, 0, len(recipes))
	for i := range recipes {
		items = append(items, newRecipeListItem(&recipes[i]))
	}
	return c.JSON(items)
}

// HandleGet returns the detail representation of one recipe.
func (h *RecipeHandler) HandleGet(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "retrieve recipe")
	}
	recipe, err := h.service.Get(c.UserContext(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		return respondError(c, err, "retrieve recipe")
	}
	return c.JSON(h.newRecipeDetail(recipe))
}

// HandleCreate creates a recipe owned by the caller.
func (h *RecipeHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.RecipeInput
	if err := c.BodyParser(&req); err != nil {
		return invalidRecipeBody(c, err)
	}

	recipe, err := h.service.Create(c.UserContext(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		return respondError(c, err, "create recipe")
	}
	return c.Status(fiber.StatusCreated).JSON(h.newRecipeDetail(recipe))
}

// HandleUpdate replaces a recipe.
func (h *RecipeHandler) HandleUpdate(c *fiber.Ctx) error {
	return h.update(c, false)
}

// HandlePartialUpdate changes only the fields present in the body.
func (h *RecipeHandler) HandlePartialUpdate(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *RecipeHandler) update(c *fiber.Ctx, partial bool) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "update recipe")
	}
	var req services.RecipeInput
	if err := c.BodyParser(&req); err != nil {
		return invalidRecipeBody(c, err)
	}

	recipe, err := h.service.Update(c.UserContext(), middleware.CurrentUser(c).ID, id, req, partial)
	if err != nil {
		return respondError(c, err, "update recipe")
	}
	return c.JSON(h.newRecipeDetail(recipe))
}

// invalidRecipeBody reports a decode failure. Price is the only field with
// its own decoder, so its errors arrive untyped.
func invalidRecipeBody(c *fiber.Ctx, err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &typeErr) && !errors.As(err, &syntaxErr) && strings.HasPrefix(err.Error(), "error decoding string") {
		return respondError(c, apperror.ValidationFailed("price", "A valid number is required."), "parse recipe")
	}
	return invalidBody(c, err)
}

// HandleDelete deletes a recipe.
func (h *RecipeHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "delete recipe")
	}
	if err := h.service.Delete(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
		return respondError(c, err, "delete recipe")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleUploadImage stores the multipart "image" file for a recipe.
func (h *RecipeHandler) HandleUploadImage(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err, "upload image")
	}
	user := middleware.CurrentUser(c)

	// Locate the recipe first so a missing recipe is a 404 whatever the body.
	if _, err := h.service.Get(c.UserContext(), user.ID, id); err != nil {
		return respondError(c, err, "upload image")
	}

	upload, err := h.readUpload(c)
	if err != nil {
		h.metrics.RecordImageUpload("rejected")
		return respondError(c, err, "upload image")
	}

	recipe, err := h.service.UploadImage(c.UserContext(), user.ID, id, upload)
	if err != nil {
		h.metrics.RecordImageUpload("rejected")
		return respondError(c, err, "upload image")
	}

	h.metrics.RecordImageUpload("stored")
	return c.JSON(recipeImage{ID: recipe.ID, Image: h.imageURL(recipe.Image)})
}

func (h *RecipeHandler) readUpload(c *fiber.Ctx) (services.ImageUpload, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return services.ImageUpload{}, apperror.ValidationFailed("image", "No file was submitted.")
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return services.ImageUpload{}, apperror.ValidationFailed("image",
			fmt.Sprintf("Ensure this file is no larger than %d bytes.", h.maxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return services.ImageUpload{Filename: fileHeader.Filename, Data: data}, nil
}
