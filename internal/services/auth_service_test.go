package services_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"recipeapi/internal/apperror"
	"recipeapi/internal/models"
	"recipeapi/internal/services"
)

const testJWTSecret = "test_jwt_secret"

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:       42,
		Email:    "test@example.com",
		Password: string(hashedPassword),
		IsActive: true,
	}
}

func TestAuthService_IssueToken(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)
	user := activeUser(t, "testpass123")

	mockRepo.On("GetByEmail", mock.Anything, "test@example.com").Return(user, nil).Once()
	mockRepo.On("Update", mock.Anything, user).Return(nil).Once()

	token, err := authService.IssueToken(ctx, "test@EXAMPLE.com", "testpass123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotNil(t, user.LastLogin)

	parsedToken, err := jwt.ParseWithClaims(token, &services.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(*services.Claims)
	require.True(t, ok)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_IssueTokenRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)
		user := activeUser(t, "goodpass")
		mockRepo.On("GetByEmail", mock.Anything, "test@example.com").Return(user, nil).Once()

		_, err := authService.IssueToken(ctx, "test@example.com", "badpass")
		assertNonFieldError(t, err)
		assert.Nil(t, user.LastLogin)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)
		mockRepo.On("GetByEmail", mock.Anything, "test@example.com").Return(nil, apperror.NotFound("user", "test@example.com")).Once()

		_, err := authService.IssueToken(ctx, "test@example.com", "pass123")
		assertNonFieldError(t, err)
	})

	t.Run("inactive user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)
		user := activeUser(t, "pass123")
		user.IsActive = false
		mockRepo.On("GetByEmail", mock.Anything, "test@example.com").Return(user, nil).Once()

		_, err := authService.IssueToken(ctx, "test@example.com", "pass123")
		assertNonFieldError(t, err)
	})

	t.Run("blank password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

		_, err := authService.IssueToken(ctx, "test@example.com", "")
		var appErr *apperror.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Fields, "password")
		mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})
}

func assertNonFieldError(t *testing.T, err error) {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "Unable to authenticate with provided credentials.", appErr.Fields["non_field_errors"])
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	sign := func(claims services.Claims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	// Test valid token
	valid := sign(services.Claims{UserID: 42, Email: "test@example.com", StandardClaims: jwt.StandardClaims{
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}}, testJWTSecret)
	claims, err := authService.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)

	// Test malformed token
	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorContains(t, err, "invalid token")

	// Test wrong secret
	_, err = authService.ValidateToken(sign(services.Claims{UserID: 42}, "other_secret"))
	assert.ErrorContains(t, err, "invalid token")

	// Test expired token
	expired := sign(services.Claims{UserID: 42, StandardClaims: jwt.StandardClaims{
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}}, testJWTSecret)
	_, err = authService.ValidateToken(expired)
	assert.ErrorContains(t, err, "invalid token")
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)
	user := activeUser(t, "pass123")

	mockRepo.On("GetByEmail", mock.Anything, "test@example.com").Return(user, nil).Once()
	mockRepo.On("Update", mock.Anything, user).Return(nil).Once()
	token, err := authService.IssueToken(ctx, "test@example.com", "pass123")
	require.NoError(t, err)

	mockRepo.On("GetByID", mock.Anything, uint(42)).Return(user, nil).Once()
	got, err := authService.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	inactive := *user
	inactive.IsActive = false
	mockRepo.On("GetByID", mock.Anything, uint(42)).Return(&inactive, nil).Once()
	_, err = authService.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = authService.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	mockRepo.AssertExpectations(t)
}
