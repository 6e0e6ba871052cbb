package models

import "time"

// ClassStatus tracks the admin approval state of a class offering.
type ClassStatus string

const (
	ClassStatusPending  ClassStatus = "pending"
	ClassStatusApproved ClassStatus = "approved"
	ClassStatusDenied   ClassStatus = "denied"
)

// Class represents an instructor-authored class offering with capacity and approval state.
type Class struct {
	ID              string      `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	Image           *string     `db:"image" json:"image,omitempty"`
	InstructorName  string      `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string      `db:"instructor_email" json:"instructor_email"`
	PriceCents      int64       `db:"price_cents" json:"price_cents"`
	AvailableSeats  int         `db:"available_seats" json:"available_seats"`
	TotalEnrolled   int         `db:"total_enrolled" json:"total_enrolled"`
	Status          ClassStatus `db:"status" json:"status"`
	Feedback        *string     `db:"feedback" json:"feedback,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Status          ClassStatus
	InstructorEmail string
	Search          string
	Page            int
	PageSize        int
}

// Instructor is the public roster entry derived from users with the instructor role.
type Instructor struct {
	ID       string  `db:"id" json:"id"`
	Email    string  `db:"email" json:"email"`
	FullName string  `db:"full_name" json:"full_name"`
	PhotoURL *string `db:"photo_url" json:"photo_url,omitempty"`
	Classes  int     `db:"classes" json:"classes"`
}
