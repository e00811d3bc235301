package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"recipeapi/internal/models"
	"recipeapi/internal/repositories"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, search string) ([]models.User, error) {
	args := m.Called(ctx, search)
	return args.Get(0).([]models.User), args.Error(1)
}

// MockLabelRepository is a mock implementation of repositories.LabelRepository
type MockLabelRepository[T any] struct {
	mock.Mock
}

func (m *MockLabelRepository[T]) ListByOwner(ctx context.Context, ownerID uint, assignedOnly bool) ([]T, error) {
	args := m.Called(ctx, ownerID, assignedOnly)
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockLabelRepository[T]) GetOwnedByIDs(ctx context.Context, ownerID uint, ids []uint) ([]T, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockLabelRepository[T]) Create(ctx context.Context, label *T) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

// MockRecipeRepository is a mock implementation of repositories.RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) ListByOwner(ctx context.Context, ownerID uint, filter repositories.RecipeFilter) ([]models.Recipe, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) GetOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(ctx, recipe)
	if args.Error(0) == nil && recipe.ID == 0 {
		recipe.ID = 1
	}
	return args.Error(0)
}

func (m *MockRecipeRepository) Update(ctx context.Context, recipe *models.Recipe, links repositories.LinkChanges) error {
	args := m.Called(ctx, recipe, links)
	return args.Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(ctx, recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) SetImage(ctx context.Context, recipe *models.Recipe, path string) error {
	args := m.Called(ctx, recipe, path)
	return args.Error(0)
}

// MockImageStore is a mock implementation of services.ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) SaveImage(filename string, data []byte) (string, error) {
	args := m.Called(filename, data)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, payload any) error {
	args := m.Called(routingKey, payload)
	return args.Error(0)
}
