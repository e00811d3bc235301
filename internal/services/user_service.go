package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"recipeapi/internal/apperror"
	"recipeapi/internal/models"
	"recipeapi/internal/repositories"
	"recipeapi/internal/validation"
)

// MinPasswordLength applies to passwords set through the API.
const MinPasswordLength = 5

// RegisterInput is the payload for creating an account through the API.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"required,max=255"`
}

// ProfileUpdate holds the fields a user may change on their own profile. Nil
// fields are left unchanged.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// UserService creates and maintains user accounts.
type UserService struct {
	repo     repositories.UserRepository
	validate *validation.Validator
	hashCost int
}

// NewUserService creates a new UserService.
func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{
		repo:     repo,
		validate: validation.New(),
		hashCost: bcrypt.DefaultCost,
	}
}

// NormalizeEmail lowercases the domain part of an email address. The local
// part is kept as given.
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// CreateUser creates an active user with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.create(ctx, &models.User{Email: email, Name: name}, password)
}

// CreateSuperuser creates an active user with both the staff and superuser
// flags set.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.create(ctx, &models.User{Email: email, IsStaff: true, IsSuperuser: true}, password)
}

func (s *UserService) create(ctx context.Context, user *models.User, password string) (*models.User, error) {
	if user.Email == "" {
		return nil, apperror.ValidationFailed("email", "Users must have an email address.")
	}
	user.Email = NormalizeEmail(user.Email)
	user.IsActive = true

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	user.Password = hash

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.WithField("user_id", user.ID).Info("User created")
	return user, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.ValidationFailed("password", "Ensure this field has no more than 72 bytes.")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether raw matches the user's stored password.
func (s *UserService) CheckPassword(user *models.User, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(raw)) == nil
}

// Register validates an API sign-up payload and creates the user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	email := NormalizeEmail(in.Email)
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperror.ValidationFailed("email", "user with this email already exists.")
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	return s.CreateUser(ctx, email, in.Password, strings.TrimSpace(in.Name))
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile changes the user's name and/or password.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*models.User, error) {
	fields := map[string]string{}
	if in.Name != nil {
		switch name := strings.TrimSpace(*in.Name); {
		case name == "":
			fields["name"] = "This field may not be blank."
		case len(name) > 255:
			fields["name"] = "Ensure this field has no more than 255 characters."
		}
	}
	if in.Password != nil && len(*in.Password) < MinPasswordLength {
		fields["password"] = fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength)
	}
	if len(fields) > 0 {
		return nil, apperror.ValidationWithFields(fields)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ListUsers returns users ordered by ID, filtered by an email substring.
func (s *UserService) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}
