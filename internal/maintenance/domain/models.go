package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func IsValidStatus(status Status) bool {
	switch status {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

type MaintenanceRecord struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	EquipmentID      snowflake.ID `gorm:"index" json:"equipment_id"`
	TechnicianID     snowflake.ID `gorm:"index" json:"technician_id"`
	Status           Status       `gorm:"index" json:"status"`
	MaintenanceType  string       `json:"maintenance_type"`
	ScheduledDate    time.Time    `json:"scheduled_date"`
	PerformedDate    *time.Time   `json:"performed_date,omitempty"`
	TechnicianNotes  string       `json:"technician_notes,omitempty"`
	ServiceChecklist string       `json:"service_checklist,omitempty"`
	PartsUsed        string       `json:"parts_used,omitempty"`
	TotalCost        *int64       `json:"total_cost,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}

type ServiceType string

const (
	ServiceTypeMaintenance ServiceType = "maintenance"
	ServiceTypeRepair      ServiceType = "repair"
)

// ServiceHistoryEntry is the per-unit service log appended when work
// completes.
type ServiceHistoryEntry struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	EquipmentID  snowflake.ID `gorm:"index" json:"equipment_id"`
	TechnicianID snowflake.ID `json:"technician_id"`
	ServiceDate  time.Time    `json:"service_date"`
	ServiceType  ServiceType  `json:"service_type"`
	Description  string       `json:"description,omitempty"`
	Cost         *int64       `json:"cost,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (ServiceHistoryEntry) TableName() string {
	return "service_history_entries"
}
