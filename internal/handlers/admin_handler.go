package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"recipeapi/internal/services"
)

// AdminHandler serves the staff-only user listing.
type AdminHandler struct {
	users *services.UserService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users *services.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// RegisterRoutes registers the admin routes on a staff-only router.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/users", h.HandleListUsers)
}

type adminUser struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login"`
}

// HandleListUsers lists users ordered by ID. ?search= filters on email.
func (h *AdminHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, err, "list users")
	}

	out := make([]adminUser, 0, len(users))
	for _, u := range users {
		out = append(out, adminUser{
			ID:          u.ID,
			Email:       u.Email,
			Name:        u.Name,
			IsActive:    u.IsActive,
			IsStaff:     u.IsStaff,
			IsSuperuser: u.IsSuperuser,
			LastLogin:   u.LastLogin,
		})
	}
	return c.JSON(out)
}
