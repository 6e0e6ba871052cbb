package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionRoleChange     = "ROLE_CHANGE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionClassApproval  = "CLASS_APPROVAL"
	AuditActionClassDelete    = "CLASS_DELETE"
	AuditActionPaymentConfirm = "PAYMENT_CONFIRM"
)

// RequestMeta carries caller context attached to audit records.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserEmail  *string   `db:"user_email" json:"user_email,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
