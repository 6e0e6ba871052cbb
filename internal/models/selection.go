package models

import "time"

// SelectionStatus tracks a selection through the enrollment transition.
type SelectionStatus string

const (
	SelectionStatusSelected SelectionStatus = "SELECTED"
	SelectionStatusEnrolled SelectionStatus = "ENROLLED"
)

// Selection records one student's intent to take one class.
// Unique per (class_id, user_email); created in SELECTED state and moved to
// ENROLLED exactly once by a confirmed payment.
type Selection struct {
	ID         string          `db:"id" json:"id"`
	ClassID    string          `db:"class_id" json:"class_id"`
	UserEmail  string          `db:"user_email" json:"user_email"`
	Status     SelectionStatus `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	EnrolledAt *time.Time      `db:"enrolled_at" json:"enrolled_at,omitempty"`
}

// SelectionDetail extends Selection with class context for listings.
type SelectionDetail struct {
	Selection
	ClassName      string  `db:"class_name" json:"class_name"`
	ClassImage     *string `db:"class_image" json:"class_image,omitempty"`
	InstructorName string  `db:"instructor_name" json:"instructor_name"`
	PriceCents     int64   `db:"price_cents" json:"price_cents"`
}
