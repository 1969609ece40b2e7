package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusReported   Status = "reported"
	StatusDiagnosed  Status = "diagnosed"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

func IsValidStatus(status Status) bool {
	switch status {
	case StatusReported, StatusDiagnosed, StatusScheduled, StatusInProgress, StatusResolved, StatusClosed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends the workflow. At most one
// non-terminal report may exist per equipment unit.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type FaultReport struct {
	ID                  snowflake.ID  `gorm:"primaryKey" json:"id"`
	EquipmentID         *snowflake.ID `gorm:"index" json:"equipment_id,omitempty"`
	CustomerID          snowflake.ID  `gorm:"index" json:"customer_id"`
	Status              Status        `gorm:"index" json:"status"`
	Description         string        `json:"description"`
	Diagnosis           string        `json:"diagnosis,omitempty"`
	PartsRequired       string        `json:"parts_required,omitempty"`
	EstimatedCost       *int64        `json:"estimated_cost,omitempty"`
	InternalNotes       string        `json:"internal_notes,omitempty"`
	RepairNotes         string        `json:"repair_notes,omitempty"`
	RequestReplacement  bool          `json:"request_replacement"`
	ReplacementApproved bool          `json:"replacement_approved"`
	TechnicianID        *snowflake.ID `json:"technician_id,omitempty"`
	DateReported        time.Time     `json:"date_reported"`
	ScheduledDate       *time.Time    `json:"scheduled_date,omitempty"`
	RepairDate          *time.Time    `json:"repair_date,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (FaultReport) TableName() string {
	return "fault_reports"
}

// Priority is derived from the report's age and the replacement flag; it
// is never stored.
func (r FaultReport) Priority(now time.Time) Priority {
	if r.RequestReplacement {
		return PriorityHigh
	}
	age := now.Sub(r.DateReported)
	switch {
	case age > 14*24*time.Hour:
		return PriorityHigh
	case age > 7*24*time.Hour:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
