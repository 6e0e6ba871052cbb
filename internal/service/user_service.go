package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/crescendo-labs/music-school-api/internal/models"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	RoleByEmail(ctx context.Context, email string) (models.UserRole, error)
	Create(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RegisterUserRequest represents payload for the idempotent user registration.
type RegisterUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"name" validate:"required"`
	PhotoURL *string `json:"photo_url"`
}

// UserService handles identity and role management workflows.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Register creates a user on first sight of an email. Registering an existing
// email is a no-op returning the stored record; the second return value
// reports whether a row was created.
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*models.User, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to fetch user")
	}

	user := &models.User{
		Email:    email,
		FullName: req.FullName,
		PhotoURL: req.PhotoURL,
		Role:     models.RoleStudent,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create user")
	}
	return user, true, nil
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}

	return users, pagination, nil
}

// Profile returns the stored record for an email identity.
func (s *UserService) Profile(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to fetch user")
	}
	return user, nil
}

// HasRole reports whether the stored role for email equals the queried role.
// Unknown emails simply answer false.
func (s *UserService) HasRole(ctx context.Context, email string, role models.UserRole) (bool, error) {
	stored, err := s.repo.RoleByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load role")
	}
	return stored == role, nil
}

// SetRole grants an assignable role to the user with the given id.
func (s *UserService) SetRole(ctx context.Context, id string, role models.UserRole, actorEmail string, meta models.RequestMeta) (*models.User, error) {
	if _, ok := models.AssignableRoles[role]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role is not assignable")
	}

	if err := s.repo.SetRole(ctx, id, role, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to set role")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load user")
	}

	values, _ := json.Marshal(map[string]interface{}{"role": role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserEmail:  &actorEmail,
		Action:     models.AuditActionRoleChange,
		Resource:   "users",
		ResourceID: &id,
		NewValues:  values,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record role change audit log", zap.Error(err))
	}

	return user, nil
}

// Delete removes a user by id.
func (s *UserService) Delete(ctx context.Context, id string, actorEmail string, meta models.RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to delete user")
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserEmail:  &actorEmail,
		Action:     models.AuditActionUserDelete,
		Resource:   "users",
		ResourceID: &id,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user delete audit log", zap.Error(err))
	}

	return nil
}
