package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/auth"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/domain"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/event"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/repository"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/storage"
	apperrors "github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/errors"
)

// bcryptCost is the work factor for password hashing.
const bcryptCost = 12

// RegisterInput holds the parameters for creating an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput holds the credentials for signing in.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the parameters for updating a profile. Nil fields
// are left unchanged.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

// UserListResult is one page of user accounts.
type UserListResult struct {
	Users      []domain.User `json:"users"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
}

// UserService implements account and authentication business logic.
type UserService struct {
	repo     repository.UserRepository
	storage  storage.Storage
	jwt      *auth.JWTManager
	producer *event.Producer
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	repo repository.UserRepository,
	store storage.Storage,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		repo:     repo,
		storage:  store,
		jwt:      jwtManager,
		producer: producer,
		logger:   logger,
	}
}

// Register creates a new account and returns it with a signed access token.
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*domain.User, string, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, "", apperrors.InvalidInput("name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// Login verifies credentials and returns the account with a signed access
// token. Wrong email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, input *LoginInput) (*domain.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, "", apperrors.InvalidInput("email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.Unauthorized("invalid email or password")
		}
		return nil, "", fmt.Errorf("get user for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, token, nil
}

// GetUser retrieves an account by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies partial updates to the user's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input *UpdateProfileInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		user.Name = strings.TrimSpace(*input.Name)
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = email
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return user, nil
}

// UpdateAvatar uploads a new avatar to blob storage and replaces the old one.
func (s *UserService) UpdateAvatar(ctx context.Context, id, contentType string, size int64, data io.Reader) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user for avatar update: %w", err)
	}

	key := fmt.Sprintf("avatars/%s/%s", user.ID, uuid.New().String())
	result, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: contentType,
		Size:        size,
		Data:        data,
	})
	if err != nil {
		return nil, apperrors.ServiceUnavailable("avatar storage is unavailable", err)
	}

	oldKey := ""
	if user.Avatar != nil {
		oldKey = user.Avatar.Key
	}

	user.Avatar = &domain.Avatar{Key: result.Key, URL: result.URL}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user avatar: %w", err)
	}

	if oldKey != "" {
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete old avatar blob",
				slog.String("user_id", user.ID),
				slog.String("key", oldKey),
				slog.String("error", err.Error()),
			)
		}
	}

	return user, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *UserService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user for password change: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", id),
	)

	return nil
}

// ListUsers returns one page of accounts. Admin only, which the handler
// enforces.
func (s *UserService) ListUsers(ctx context.Context, page, perPage int) (*UserListResult, error) {
	page, perPage = normalizePage(page, perPage)

	users, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &UserListResult{
		Users:      users,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// UpdateUserRole changes an account's role.
func (s *UserService) UpdateUserRole(ctx context.Context, id, role string) (*domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown role %q", role))
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user for role update: %w", err)
	}

	user.Role = role
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}

	s.logger.InfoContext(ctx, "user role updated",
		slog.String("user_id", id),
		slog.String("role", role),
	)

	return user, nil
}

// DeleteUser removes an account.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", id),
	)

	return nil
}

// validatePassword enforces the minimum password policy.
func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.InvalidInput("password must be at least 8 characters")
	}
	return nil
}
