package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("recipe", 7), ErrNotFound, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("name", "is required"), ErrValidation, true},
		{"Unauthorized wraps ErrUnauthorized", Unauthorized("no token"), ErrUnauthorized, true},
		{"Forbidden wraps ErrForbidden", Forbidden("staff only"), ErrForbidden, true},
		{"NotFound is not a validation error", NotFound("tag", 1), ErrValidation, false},
		{"wrapped error still matches", fmt.Errorf("creating tag: %w", ValidationFailed("name", "is required")), ErrValidation, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, errors.Is(tt.err, tt.target))
		})
	}
}

func TestValidationFields(t *testing.T) {
	err := fmt.Errorf("registering user: %w", ValidationWithFields(map[string]string{
		"email":    "is required",
		"password": "must be at least 5 characters",
	}))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Len(t, appErr.Fields, 2)
	assert.Equal(t, "is required", appErr.Fields["email"])
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "recipe with ID 42 not found", NotFound("recipe", 42).Error())
}
