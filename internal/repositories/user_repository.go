package repositories

import (
	"context"

	"recipeapi/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// List returns users ordered by ID, optionally filtered by an email substring.
	List(ctx context.Context, search string) ([]models.User, error)
}
