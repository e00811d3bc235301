package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	log "github.com/sirupsen/logrus"

	"recipeapi/internal/apperror"
	"recipeapi/internal/models"
	"recipeapi/internal/repositories"
)

const invalidCredentials = "Unable to authenticate with provided credentials."

// Claims are the JWT claims of an API token.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// AuthService issues and verifies API tokens.
type AuthService struct {
	users      *UserService
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:      NewUserService(userRepo),
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
		now:        time.Now,
	}
}

// IssueToken authenticates email and password and returns a signed token.
// Every credential failure is reported the same way so callers cannot tell
// unknown accounts from wrong passwords.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (string, error) {
	fields := map[string]string{}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "This field may not be blank."
	}
	if password == "" {
		fields["password"] = "This field may not be blank."
	}
	if len(fields) > 0 {
		return "", apperror.ValidationWithFields(fields)
	}

	user, err := s.userRepo.GetByEmail(ctx, NormalizeEmail(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.ValidationFailed("non_field_errors", invalidCredentials)
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive || !s.users.CheckPassword(user, password) {
		return "", apperror.ValidationFailed("non_field_errors", invalidCredentials)
	}

	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenDurat).Unix(),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	user.LastLogin = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Debugf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Authenticate resolves a token to its active user.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid token.")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid token.")
		}
		return nil, fmt.Errorf("failed to load token user: %w", err)
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("User inactive or deleted.")
	}
	return user, nil
}
