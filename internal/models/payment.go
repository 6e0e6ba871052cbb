package models

import "time"

// Payment is an append-only record of one confirmed payment.
// class_selection_id is unique: at most one payment per selection.
type Payment struct {
	ID               string    `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	AmountCents      int64     `db:"amount_cents" json:"amount_cents"`
	ClassSelectionID string    `db:"class_selection_id" json:"class_selection_id"`
	TransactionID    string    `db:"transaction_id" json:"transaction_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// PaymentDetail extends Payment with class context for history listings.
type PaymentDetail struct {
	Payment
	ClassName string `db:"class_name" json:"class_name"`
}

// PaymentFilter narrows payment history queries.
type PaymentFilter struct {
	Email string
}
