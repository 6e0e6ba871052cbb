package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/crescendo-labs/music-school-api/internal/models"
)

// ClassRepository handles persistence of class offerings.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, name, image, instructor_name, instructor_email, price_cents,
        available_seats, total_enrolled, status, feedback, created_at, updated_at`

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE id = $1`, classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// List returns class offerings filtered by the provided criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	baseQuery := `FROM classes WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.InstructorEmail != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_email = $%d", len(args)+1))
		args = append(args, filter.InstructorEmail)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, classColumns, baseQuery, size, offset)

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// Create persists a new class offering.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	if class.Status == "" {
		class.Status = models.ClassStatusPending
	}
	const query = `INSERT INTO classes (id, name, image, instructor_name, instructor_email, price_cents,
        available_seats, total_enrolled, status, feedback, created_at, updated_at)
        VALUES (:id, :name, :image, :instructor_name, :instructor_email, :price_cents,
        :available_seats, :total_enrolled, :status, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// SetApproval updates the approval status and optional feedback for a class.
func (r *ClassRepository) SetApproval(ctx context.Context, id string, status models.ClassStatus, feedback *string) error {
	const query = `UPDATE classes SET status = $2, feedback = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, feedback, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set class approval: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a class offering.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM classes WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Instructors returns the public instructor roster with their class counts.
func (r *ClassRepository) Instructors(ctx context.Context, page, size int) ([]models.Instructor, int, error) {
	if page < 1 {
		page = 1
	}
	if size > 50 {
		size = 50
	}

	// size <= 0 means the whole roster
	limit := ""
	if size > 0 {
		limit = fmt.Sprintf(" LIMIT %d OFFSET %d", size, (page-1)*size)
	}

	query := fmt.Sprintf(`SELECT u.id, u.email, u.full_name, u.photo_url,
        COUNT(c.id) AS classes
        FROM users u
        LEFT JOIN classes c ON c.instructor_email = u.email AND c.status = $1
        WHERE u.role = $2
        GROUP BY u.id, u.email, u.full_name, u.photo_url
        ORDER BY classes DESC, u.full_name ASC%s`, limit)

	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, models.ClassStatusApproved, models.RoleInstructor); err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM users WHERE role = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, models.RoleInstructor); err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}
	return instructors, total, nil
}
