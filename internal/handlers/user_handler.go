package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"recipeapi/internal/apperror"
	"recipeapi/internal/metrics"
	"recipeapi/internal/middleware"
	"recipeapi/internal/models"
	"recipeapi/internal/services"
)

// UserHandler handles HTTP requests for accounts and tokens.
type UserHandler struct {
	users   *services.UserService
	auth    *services.AuthService
	metrics *metrics.Metrics
}

// NewUserHandler creates a new UserHandler. m may be nil.
func NewUserHandler(users *services.UserService, auth *services.AuthService, m *metrics.Metrics) *UserHandler {
	return &UserHandler{
		users:   users,
		auth:    auth,
		metrics: m,
	}
}

// RegisterRoutes registers the public account routes. tokenLimit guards
// the token endpoint.
func (h *UserHandler) RegisterRoutes(router fiber.Router, tokenLimit fiber.Handler) {
	router.Post("/create", h.HandleCreate)
	router.Post("/token", tokenLimit, h.HandleToken)
}

// RegisterMeRoutes registers the profile routes on an authenticated router.
func (h *UserHandler) RegisterMeRoutes(router fiber.Router) {
	router.Get("/", h.HandleGetMe)
	router.Patch("/", h.HandleUpdateMe)
	notAllowed := methodNotAllowed(fiber.MethodGet, fiber.MethodPatch)
	router.Put("/", notAllowed)
	router.Post("/", notAllowed)
	router.Delete("/", notAllowed)
}

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name}
}

// HandleCreate handles new user registration.
func (h *UserHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.users.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, "register user")
	}
	return c.Status(fiber.StatusCreated).JSON(newUserResponse(user))
}

// TokenRequest represents the request body for a token.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleToken exchanges credentials for a bearer token.
func (h *UserHandler) HandleToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	token, err := h.auth.IssueToken(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			h.metrics.RecordToken("rejected")
			log.WithField("email", req.Email).Info("Token request rejected")
		}
		return respondError(c, err, "issue token")
	}

	h.metrics.RecordToken("issued")
	return c.JSON(fiber.Map{"token": token})
}

// HandleGetMe returns the authenticated user's profile.
func (h *UserHandler) HandleGetMe(c *fiber.Ctx) error {
	return c.JSON(newUserResponse(middleware.CurrentUser(c)))
}

// HandleUpdateMe updates the authenticated user's name and/or password.
func (h *UserHandler) HandleUpdateMe(c *fiber.Ctx) error {
	var req services.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.users.UpdateProfile(c.UserContext(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		return respondError(c, err, "update profile")
	}
	return c.JSON(newUserResponse(user))
}
