package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/crescendo-labs/music-school-api/internal/models"
	"github.com/crescendo-labs/music-school-api/internal/repository"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
	"github.com/crescendo-labs/music-school-api/pkg/export"
	"github.com/crescendo-labs/music-school-api/pkg/payment"
)

type selectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Selection, error)
	FindByClassAndEmail(ctx context.Context, classID, email string) (*models.Selection, error)
	Create(ctx context.Context, selection *models.Selection) error
	ListByEmail(ctx context.Context, email string, status models.SelectionStatus) ([]models.SelectionDetail, error)
	DeleteOwned(ctx context.Context, id, email string) error
}

type paymentReader interface {
	FindByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	FindBySelectionID(ctx context.Context, selectionID string) (*models.Payment, error)
	ListByEmail(ctx context.Context, email string) ([]models.PaymentDetail, error)
}

type enrollmentWriter interface {
	ConfirmEnrollment(ctx context.Context, payment *models.Payment) error
}

type classOfferingReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// PaymentGateway is the opaque create-payment-intent capability.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64) (*payment.Intent, error)
}

type enrollmentMetrics interface {
	RecordEnrollment(amountCents int64)
}

// CreateIntentRequest asks the gateway for a client secret. Price is in minor
// currency units and must be positive.
type CreateIntentRequest struct {
	Price int64 `json:"price" validate:"required,gt=0"`
}

// ConfirmPaymentRequest finalizes a payment for a selection.
type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

// EnrollmentService governs the selection lifecycle: SELECTED on creation,
// ENROLLED exactly once when a payment for the selection is confirmed.
type EnrollmentService struct {
	selections selectionRepository
	payments   paymentReader
	enrollment enrollmentWriter
	classes    classOfferingReader
	gateway    PaymentGateway
	metrics    enrollmentMetrics
	validator  *validator.Validate
	logger     *zap.Logger

	// serializes confirmations per selection id
	locks sync.Map
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(selections selectionRepository, payments paymentReader, enrollment enrollmentWriter, classes classOfferingReader, gateway PaymentGateway, metrics enrollmentMetrics, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		selections: selections,
		payments:   payments,
		enrollment: enrollment,
		classes:    classes,
		gateway:    gateway,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// CreateSelection records a student's intent to take a class. Creating the
// same (class, student) selection twice is a no-op returning the existing
// record; the second return value reports whether a row was created.
func (s *EnrollmentService) CreateSelection(ctx context.Context, classID, email string) (*models.Selection, bool, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load class")
	}
	if class.Status != models.ClassStatusApproved {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "class is not open for selection")
	}

	existing, err := s.selections.FindByClassAndEmail(ctx, classID, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to check selection")
	}

	selection := &models.Selection{
		ClassID:   classID,
		UserEmail: email,
		Status:    models.SelectionStatusSelected,
	}
	if err := s.selections.Create(ctx, selection); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create selection")
	}
	return selection, true, nil
}

// Selections lists a student's selections with class context.
func (s *EnrollmentService) Selections(ctx context.Context, email string) ([]models.SelectionDetail, error) {
	selections, err := s.selections.ListByEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list selections")
	}
	return selections, nil
}

// EnrolledClasses lists the selections a student has paid for.
func (s *EnrollmentService) EnrolledClasses(ctx context.Context, email string) ([]models.SelectionDetail, error) {
	enrolled, err := s.selections.ListByEmail(ctx, email, models.SelectionStatusEnrolled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list enrolled classes")
	}
	return enrolled, nil
}

// RemoveSelection deletes a not-yet-enrolled selection owned by the caller.
func (s *EnrollmentService) RemoveSelection(ctx context.Context, id, email string) error {
	if err := s.selections.DeleteOwned(ctx, id, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "selection not found")
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to delete selection")
	}
	return nil
}

// CreatePaymentIntent delegates to the payment gateway. Pure pass-through;
// nothing is persisted until the payment is confirmed.
func (s *EnrollmentService) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (*payment.Intent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "price must be a positive amount in minor units")
	}

	intent, err := s.gateway.CreateIntent(ctx, req.Price)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "payment gateway call failed")
	}
	return intent, nil
}

// ConfirmPayment appends the payment record and performs the selection's
// SELECTED -> ENROLLED transition as one atomic operation. Re-invoking with
// the same selection id returns the already-recorded payment without writing
// anything or touching the class counters. The second return value reports
// whether this call performed the transition.
func (s *EnrollmentService) ConfirmPayment(ctx context.Context, selectionID string, req ConfirmPaymentRequest) (*models.Payment, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	unlock := s.lockSelection(selectionID)
	defer unlock()

	selection, err := s.selections.FindByID(ctx, selectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "selection not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load selection")
	}

	if selection.Status == models.SelectionStatusEnrolled {
		return s.recordedPayment(ctx, selectionID)
	}

	class, err := s.classes.FindByID(ctx, selection.ClassID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load class")
	}

	pay := &models.Payment{
		Email:            selection.UserEmail,
		AmountCents:      class.PriceCents,
		ClassSelectionID: selection.ID,
		TransactionID:    req.TransactionID,
	}

	if err := s.enrollment.ConfirmEnrollment(ctx, pay); err != nil {
		switch {
		case errors.Is(err, repository.ErrSelectionNotPending):
			// lost the race to another confirmation; answer idempotently
			return s.recordedPayment(ctx, selectionID)
		case errors.Is(err, repository.ErrNoSeats):
			return nil, false, appErrors.Clone(appErrors.ErrCapacityExceeded, "class has no available seats")
		default:
			return nil, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to confirm payment")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordEnrollment(pay.AmountCents)
	}
	s.logger.Info("selection enrolled",
		zap.String("selection_id", selection.ID),
		zap.String("class_id", selection.ClassID),
		zap.String("email", selection.UserEmail))

	return pay, true, nil
}

// PaymentHistory returns a student's payments, newest first.
func (s *EnrollmentService) PaymentHistory(ctx context.Context, email string) ([]models.PaymentDetail, error) {
	payments, err := s.payments.ListByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list payments")
	}
	return payments, nil
}

// ExportPaymentHistory renders a student's payment history as CSV.
func (s *EnrollmentService) ExportPaymentHistory(ctx context.Context, email string) ([]byte, error) {
	payments, err := s.PaymentHistory(ctx, email)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Headers: []string{"id", "class", "amount", "transaction", "paid_at"}}
	for _, p := range payments {
		data.Rows = append(data.Rows, map[string]string{
			"id":          p.ID,
			"class":       p.ClassName,
			"amount":      formatAmount(p.AmountCents),
			"transaction": p.TransactionID,
			"paid_at":     p.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}

	raw, err := export.NewCSVExporter().Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return raw, nil
}

// Receipt renders the PDF receipt for one payment. Only the payer may fetch it.
func (s *EnrollmentService) Receipt(ctx context.Context, paymentID, requesterEmail string) ([]byte, error) {
	pay, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load payment")
	}
	if pay.Email != requesterEmail {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "receipt belongs to another student")
	}

	raw, err := export.NewReceiptExporter().Render(export.Receipt{
		SchoolName:    "Crescendo Music School",
		ReceiptID:     pay.ID,
		Email:         pay.Email,
		ClassName:     pay.ClassName,
		AmountDisplay: formatAmount(pay.AmountCents),
		TransactionID: pay.TransactionID,
		PaidAt:        pay.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return raw, nil
}

func (s *EnrollmentService) recordedPayment(ctx context.Context, selectionID string) (*models.Payment, bool, error) {
	pay, err := s.payments.FindBySelectionID(ctx, selectionID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enrolled selection has no payment record")
	}
	return pay, false, nil
}

func (s *EnrollmentService) lockSelection(id string) func() {
	value, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
