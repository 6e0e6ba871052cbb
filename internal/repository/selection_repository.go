package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crescendo-labs/music-school-api/internal/models"
)

// SelectionRepository handles persistence of class selections.
type SelectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository constructs the repository.
func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

// FindByID returns a selection by its ID.
func (r *SelectionRepository) FindByID(ctx context.Context, id string) (*models.Selection, error) {
	const query = `SELECT id, class_id, user_email, status, created_at, enrolled_at FROM selections WHERE id = $1`
	var selection models.Selection
	if err := r.db.GetContext(ctx, &selection, query, id); err != nil {
		return nil, err
	}
	return &selection, nil
}

// FindByClassAndEmail returns the unique selection for a (class, student) pair.
func (r *SelectionRepository) FindByClassAndEmail(ctx context.Context, classID, email string) (*models.Selection, error) {
	const query = `SELECT id, class_id, user_email, status, created_at, enrolled_at FROM selections
        WHERE class_id = $1 AND user_email = $2 LIMIT 1`
	var selection models.Selection
	if err := r.db.GetContext(ctx, &selection, query, classID, email); err != nil {
		return nil, err
	}
	return &selection, nil
}

// Create persists a new selection in SELECTED state.
func (r *SelectionRepository) Create(ctx context.Context, selection *models.Selection) error {
	if selection.ID == "" {
		selection.ID = uuid.NewString()
	}
	if selection.CreatedAt.IsZero() {
		selection.CreatedAt = time.Now().UTC()
	}
	if selection.Status == "" {
		selection.Status = models.SelectionStatusSelected
	}
	const query = `INSERT INTO selections (id, class_id, user_email, status, created_at, enrolled_at)
        VALUES (:id, :class_id, :user_email, :status, :created_at, :enrolled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, selection); err != nil {
		return fmt.Errorf("create selection: %w", err)
	}
	return nil
}

// ListByEmail returns a student's selections with class context.
func (r *SelectionRepository) ListByEmail(ctx context.Context, email string, status models.SelectionStatus) ([]models.SelectionDetail, error) {
	query := `SELECT s.id, s.class_id, s.user_email, s.status, s.created_at, s.enrolled_at,
        c.name AS class_name, c.image AS class_image, c.instructor_name, c.price_cents
        FROM selections s
        JOIN classes c ON c.id = s.class_id
        WHERE s.user_email = $1`
	args := []interface{}{email}
	if status != "" {
		query += " AND s.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY s.created_at DESC"

	var selections []models.SelectionDetail
	if err := r.db.SelectContext(ctx, &selections, query, args...); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return selections, nil
}

// DeleteOwned removes a selection only when it belongs to the given email and
// has not been enrolled yet.
func (r *SelectionRepository) DeleteOwned(ctx context.Context, id, email string) error {
	const query = `DELETE FROM selections WHERE id = $1 AND user_email = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, id, email, models.SelectionStatusSelected)
	if err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
