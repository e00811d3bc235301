package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recipeapi/internal/apperror"
	"recipeapi/internal/models"
	"recipeapi/internal/services"
)

func TestLabelService_CreateTag(t *testing.T) {
	mockRepo := new(MockLabelRepository[models.Tag])
	tagService := services.NewTagService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(tag *models.Tag) bool {
		return tag.ID == 0 && tag.Name == "Vegan" && tag.UserID == 3
	})).Return(nil).Once()

	tag, err := tagService.Create(context.Background(), 3, "  Vegan ")
	require.NoError(t, err)
	assert.Equal(t, "Vegan", tag.Name)
	mockRepo.AssertExpectations(t)
}

func TestLabelService_CreateBlankName(t *testing.T) {
	mockRepo := new(MockLabelRepository[models.Ingredient])
	ingredientService := services.NewIngredientService(mockRepo)

	_, err := ingredientService.Create(context.Background(), 3, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLabelService_List(t *testing.T) {
	mockRepo := new(MockLabelRepository[models.Ingredient])
	ingredientService := services.NewIngredientService(mockRepo)

	expected := []models.Ingredient{{ID: 1, Name: "Eggs"}}
	mockRepo.On("ListByOwner", mock.Anything, uint(3), true).Return(expected, nil).Once()

	got, err := ingredientService.List(context.Background(), 3, services.ListLabelsOptions{AssignedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, expected, got)
	mockRepo.AssertExpectations(t)
}
