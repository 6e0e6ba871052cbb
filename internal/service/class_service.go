package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/crescendo-labs/music-school-api/internal/models"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
)

const approvedClassesCacheKey = "catalog:approved-classes"

type classRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	Create(ctx context.Context, class *models.Class) error
	SetApproval(ctx context.Context, id string, status models.ClassStatus, feedback *string) error
	Delete(ctx context.Context, id string) error
	Instructors(ctx context.Context, page, size int) ([]models.Instructor, int, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AddClassRequest describes an instructor's new class offering.
type AddClassRequest struct {
	Name           string  `json:"name" validate:"required"`
	Image          *string `json:"image"`
	PriceCents     int64   `json:"price_cents" validate:"required,gt=0"`
	AvailableSeats int     `json:"available_seats" validate:"required,gt=0"`
}

// ApprovalRequest carries the admin decision for a pending class.
type ApprovalRequest struct {
	Action   string  `json:"action" validate:"required,oneof=approved denied"`
	Feedback *string `json:"feedback"`
}

// ClassService manages the class catalog and its approval workflow.
type ClassService struct {
	repo      classRepository
	cache     catalogCache
	audit     auditWriter
	metrics   cacheMetrics
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, cache catalogCache, audit auditWriter, metrics cacheMetrics, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ClassService{repo: repo, cache: cache, audit: audit, metrics: metrics, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// ListApproved returns the public catalog of approved classes, served from
// cache when warm.
func (s *ClassService) ListApproved(ctx context.Context) ([]models.Class, error) {
	if s.cache != nil {
		start := time.Now()
		var cached []models.Class
		err := s.cache.Get(ctx, approvedClassesCacheKey, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
	}

	classes, _, err := s.repo.List(ctx, models.ClassFilter{Status: models.ClassStatusApproved, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list approved classes")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, approvedClassesCacheKey, classes, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return classes, nil
}

// ListAll returns every class offering regardless of status.
func (s *ClassService) ListAll(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListByInstructor returns the classes authored by the given instructor.
func (s *ClassService) ListByInstructor(ctx context.Context, email string) ([]models.Class, error) {
	classes, _, err := s.repo.List(ctx, models.ClassFilter{InstructorEmail: email, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list instructor classes")
	}
	return classes, nil
}

// Add creates a class offering in pending state for the calling instructor.
func (s *ClassService) Add(ctx context.Context, req AddClassRequest, instructorName, instructorEmail string) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{
		Name:            req.Name,
		Image:           req.Image,
		InstructorName:  instructorName,
		InstructorEmail: instructorEmail,
		PriceCents:      req.PriceCents,
		AvailableSeats:  req.AvailableSeats,
		TotalEnrolled:   0,
		Status:          models.ClassStatusPending,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create class")
	}
	return class, nil
}

// ApprovalAction applies the admin decision to a pending class. Denials may
// carry feedback for the instructor.
func (s *ClassService) ApprovalAction(ctx context.Context, id string, req ApprovalRequest, actorEmail string, meta models.RequestMeta) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	status := models.ClassStatus(req.Action)
	feedback := req.Feedback
	if status != models.ClassStatusDenied {
		feedback = nil
	}

	if err := s.repo.SetApproval(ctx, id, status, feedback); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to update approval status")
	}

	s.invalidateCatalog(ctx)

	if s.audit != nil {
		values, _ := json.Marshal(map[string]interface{}{"status": status, "feedback": feedback})
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserEmail:  &actorEmail,
			Action:     models.AuditActionClassApproval,
			Resource:   "classes",
			ResourceID: &id,
			NewValues:  values,
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record approval audit log", zap.Error(err))
		}
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load class")
	}
	return class, nil
}

// Delete removes a class offering.
func (s *ClassService) Delete(ctx context.Context, id string, actorEmail string, meta models.RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to delete class")
	}

	s.invalidateCatalog(ctx)

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserEmail:  &actorEmail,
			Action:     models.AuditActionClassDelete,
			Resource:   "classes",
			ResourceID: &id,
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record class delete audit log", zap.Error(err))
		}
	}
	return nil
}

// Instructors returns the paginated public instructor roster.
func (s *ClassService) Instructors(ctx context.Context, page, size int) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.repo.Instructors(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list instructors")
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 6
	}
	return instructors, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *ClassService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, approvedClassesCacheKey); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
