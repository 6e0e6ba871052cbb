package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/crescendo-labs/music-school-api/internal/models"
)

// PaymentRepository provides read access to the append-only payments ledger.
// Writes happen only through EnrollmentRepository.ConfirmEnrollment.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByID returns one payment with class context.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.PaymentDetail, error) {
	const query = `SELECT p.id, p.email, p.amount_cents, p.class_selection_id, p.transaction_id, p.created_at,
        c.name AS class_name
        FROM payments p
        JOIN selections s ON s.id = p.class_selection_id
        JOIN classes c ON c.id = s.class_id
        WHERE p.id = $1`
	var payment models.PaymentDetail
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindBySelectionID returns the payment recorded for a selection, if any.
func (r *PaymentRepository) FindBySelectionID(ctx context.Context, selectionID string) (*models.Payment, error) {
	const query = `SELECT id, email, amount_cents, class_selection_id, transaction_id, created_at
        FROM payments WHERE class_selection_id = $1 LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, selectionID); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByEmail returns a student's payment history, newest first.
func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]models.PaymentDetail, error) {
	const query = `SELECT p.id, p.email, p.amount_cents, p.class_selection_id, p.transaction_id, p.created_at,
        c.name AS class_name
        FROM payments p
        JOIN selections s ON s.id = p.class_selection_id
        JOIN classes c ON c.id = s.class_id
        WHERE p.email = $1
        ORDER BY p.created_at DESC`
	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, email); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
