package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/coldchain/internal/identity"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
)

type ReportRequest struct {
	EquipmentID        string
	CustomerID         string
	Description        string
	RequestReplacement bool
	Notes              string
	Actor              identity.Actor
}

type DiagnoseRequest struct {
	ReportID      string
	Actor         identity.Actor
	Diagnosis     string
	PartsRequired string
	EstimatedCost *int64
	InternalNotes string
	ScheduledDate *time.Time
}

type ListReportsRequest struct {
	pagination.Pagination
	Status      string `form:"status"`
	EquipmentID string `form:"equipment_id"`
	CustomerID  string `form:"customer_id"`
}

// ReportView decorates a report with its derived priority.
type ReportView struct {
	FaultReport
	Priority Priority `json:"priority"`
}

type ListReportsResponse struct {
	pagination.PageInfo
	Reports []ReportView `json:"reports"`
}

type Service interface {
	Report(ctx context.Context, req ReportRequest) (*FaultReport, error)
	AssignTechnician(ctx context.Context, reportID, technicianID string, actor identity.Actor) (*FaultReport, error)
	Diagnose(ctx context.Context, req DiagnoseRequest) (*FaultReport, error)
	ScheduleRepair(ctx context.Context, reportID string, actor identity.Actor, scheduledDate time.Time) (*FaultReport, error)
	StartRepair(ctx context.Context, reportID string, actor identity.Actor) (*FaultReport, error)
	CompleteRepair(ctx context.Context, reportID string, actor identity.Actor, repairNotes string) (*FaultReport, error)
	Close(ctx context.Context, reportID string, actor identity.Actor) (*FaultReport, error)
	ApproveReplacement(ctx context.Context, reportID string, actor identity.Actor) (*FaultReport, error)
	Get(ctx context.Context, id string) (*ReportView, error)
	List(ctx context.Context, req ListReportsRequest) (ListReportsResponse, error)
	Overdue(ctx context.Context, olderThan time.Duration) ([]FaultReport, error)
}

var (
	ErrNotFound              = errors.New("fault_report_not_found")
	ErrInvalidID             = errors.New("invalid_fault_report_id")
	ErrInvalidTransition     = errors.New("invalid_fault_report_transition")
	ErrDuplicateActiveReport = errors.New("duplicate_active_fault_report")
	ErrDescriptionLength     = errors.New("description_length_out_of_range")
	ErrPastScheduledDate     = errors.New("scheduled_date_in_past")
	ErrEquipmentNotFound     = errors.New("equipment_not_found")
	ErrCustomerNotFound      = errors.New("customer_not_found")
	ErrTechnicianNotFound    = errors.New("technician_not_found")
	ErrInvalidStatus         = errors.New("invalid_status_filter")
	ErrInvalidPageToken      = errors.New("invalid_page_token")
)
