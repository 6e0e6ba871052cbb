package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crescendo-labs/music-school-api/internal/models"
)

// Sentinel errors surfaced by the enrollment transaction. The service layer
// maps them onto the HTTP error taxonomy.
var (
	ErrSelectionNotPending = errors.New("selection is not pending")
	ErrNoSeats             = errors.New("class has no available seats")
)

// EnrollmentRepository owns the single transaction that turns a SELECTED
// selection into an ENROLLED one: payment insert, status flip and class
// counter updates commit together or not at all.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ConfirmEnrollment atomically records the payment and performs the
// SELECTED -> ENROLLED transition for the payment's selection id.
//
// The status flip is conditional on the current status and the seat decrement
// is conditional on available_seats > 0, so concurrent confirmations for the
// same selection or a full class fail cleanly instead of losing updates.
func (r *EnrollmentRepository) ConfirmEnrollment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	enrolledAt := payment.CreatedAt
	res, err := tx.ExecContext(ctx,
		`UPDATE selections SET status = $2, enrolled_at = $3 WHERE id = $1 AND status = $4`,
		payment.ClassSelectionID, models.SelectionStatusEnrolled, enrolledAt, models.SelectionStatusSelected)
	if err != nil {
		return fmt.Errorf("transition selection: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrSelectionNotPending
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE classes SET available_seats = available_seats - 1, total_enrolled = total_enrolled + 1, updated_at = $2
         WHERE id = (SELECT class_id FROM selections WHERE id = $1) AND available_seats > 0`,
		payment.ClassSelectionID, enrolledAt)
	if err != nil {
		return fmt.Errorf("update class counters: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNoSeats
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payments (id, email, amount_cents, class_selection_id, transaction_id, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, payment.Email, payment.AmountCents, payment.ClassSelectionID, payment.TransactionID, payment.CreatedAt); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment tx: %w", err)
	}
	return nil
}
