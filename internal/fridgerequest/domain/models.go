package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusAllocated   Status = "allocated"
	StatusCompleted   Status = "completed"
	StatusRejected    Status = "rejected"
)

func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusUnderReview, StatusApproved, StatusAllocated,
		StatusCompleted, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the request can no longer move.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// FridgeRequest is a customer's ask for additional units. It feeds the
// allocation workflow: once approved, the liaison picks available units
// and the request tracks how many were handed over. Rejection notes and
// approval notes share the approval_notes column.
type FridgeRequest struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID       snowflake.ID `gorm:"index" json:"customer_id"`
	RequestedBy      string       `json:"requested_by"`
	Quantity         int          `json:"quantity"`
	Justification    string       `json:"justification"`
	AdditionalNotes  string       `json:"additional_notes,omitempty"`
	Status           Status       `gorm:"index" json:"status"`
	ApprovedQuantity *int         `json:"approved_quantity,omitempty"`
	ApprovedBy       string       `json:"approved_by,omitempty"`
	ApprovalNotes    string       `json:"approval_notes,omitempty"`
	ApprovalDate     *time.Time   `json:"approval_date,omitempty"`
	AllocatedBy      string       `json:"allocated_by,omitempty"`
	AllocationNotes  string       `json:"allocation_notes,omitempty"`
	AllocationDate   *time.Time   `json:"allocation_date,omitempty"`
	RequestDate      time.Time    `json:"request_date"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (FridgeRequest) TableName() string {
	return "fridge_requests"
}
