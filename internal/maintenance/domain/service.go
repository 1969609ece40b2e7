package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/coldchain/internal/identity"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
)

type ScheduleRequest struct {
	EquipmentID     string
	TechnicianID    string
	ScheduledDate   time.Time
	MaintenanceType string
	Notes           string
	Checklist       string
	Actor           identity.Actor
}

type CompleteRequest struct {
	RecordID      string
	Actor         identity.Actor
	PerformedDate *time.Time
	Notes         string
	Checklist     string
	PartsUsed     string
	TotalCost     *int64
}

type ListRecordsRequest struct {
	pagination.Pagination
	Status       string `form:"status"`
	EquipmentID  string `form:"equipment_id"`
	TechnicianID string `form:"technician_id"`
	From         string `form:"from"`
	To           string `form:"to"`
}

type ListRecordsResponse struct {
	pagination.PageInfo
	Records []MaintenanceRecord `json:"records"`
}

type Service interface {
	Schedule(ctx context.Context, req ScheduleRequest) (*MaintenanceRecord, error)
	Start(ctx context.Context, recordID string, actor identity.Actor) (*MaintenanceRecord, error)
	Complete(ctx context.Context, req CompleteRequest) (*MaintenanceRecord, error)
	Cancel(ctx context.Context, recordID string, actor identity.Actor, reason string) (*MaintenanceRecord, error)
	Get(ctx context.Context, id string) (*MaintenanceRecord, error)
	List(ctx context.Context, req ListRecordsRequest) (ListRecordsResponse, error)
	Overdue(ctx context.Context) ([]MaintenanceRecord, error)
	History(ctx context.Context, equipmentID string) ([]ServiceHistoryEntry, error)
}

var (
	ErrNotFound           = errors.New("maintenance_record_not_found")
	ErrInvalidID          = errors.New("invalid_maintenance_record_id")
	ErrInvalidTransition  = errors.New("invalid_maintenance_transition")
	ErrTechnicianBooked   = errors.New("technician_already_booked")
	ErrTechnicianNotFound = errors.New("technician_not_found")
	ErrEquipmentNotFound  = errors.New("equipment_not_found")
	ErrEquipmentScrapped  = errors.New("equipment_scrapped")
	ErrReasonTooShort     = errors.New("cancel_reason_too_short")
	ErrPastScheduledDate  = errors.New("scheduled_date_in_past")
	ErrInvalidStatus      = errors.New("invalid_status_filter")
	ErrInvalidDateRange   = errors.New("invalid_date_range")
	ErrInvalidPageToken   = errors.New("invalid_page_token")
)
