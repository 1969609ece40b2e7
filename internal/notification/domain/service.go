package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
)

// Event payloads are plain structs so workflow packages do not leak their
// models into the dispatcher boundary.

type FaultReportedEvent struct {
	ReportID           snowflake.ID
	EquipmentID        snowflake.ID
	CustomerID         snowflake.ID
	Description        string
	RequestReplacement bool
}

type FaultEscalationEvent struct {
	ReportID    snowflake.ID
	EquipmentID snowflake.ID
	Status      string
	AgeDays     int
}

type MaintenanceScheduledEvent struct {
	RecordID        snowflake.ID
	EquipmentID     snowflake.ID
	TechnicianID    snowflake.ID
	CustomerID      *snowflake.ID
	MaintenanceType string
	ScheduledDate   time.Time
}

type MaintenanceOverdueEvent struct {
	RecordID      snowflake.ID
	EquipmentID   snowflake.ID
	TechnicianID  snowflake.ID
	ScheduledDate time.Time
}

type PurchaseRequestedEvent struct {
	RequestID snowflake.ID
	Quantity  int
	Reason    string
}

type FridgeRequestSubmittedEvent struct {
	RequestID  snowflake.ID
	CustomerID snowflake.ID
	Quantity   int
}

type FridgeRequestOverdueEvent struct {
	RequestID  snowflake.ID
	CustomerID snowflake.ID
	AgeDays    int
}

type RepairCompletedEvent struct {
	ReportID    snowflake.ID
	EquipmentID snowflake.ID
	CustomerID  snowflake.ID
}

// Dispatcher fans workflow events out to stored notifications. Every method
// is called after the workflow transaction commits, swallows its own
// failures, and never returns an error into the workflow.
type Dispatcher interface {
	NotifyFaultReported(ctx context.Context, event FaultReportedEvent)
	NotifyFaultEscalated(ctx context.Context, event FaultEscalationEvent)
	NotifyRepairCompleted(ctx context.Context, event RepairCompletedEvent)
	NotifyMaintenanceScheduled(ctx context.Context, event MaintenanceScheduledEvent)
	NotifyMaintenanceOverdue(ctx context.Context, event MaintenanceOverdueEvent)
	NotifyPurchaseRequested(ctx context.Context, event PurchaseRequestedEvent)
	NotifyFridgeRequestSubmitted(ctx context.Context, event FridgeRequestSubmittedEvent)
	NotifyFridgeRequestOverdue(ctx context.Context, event FridgeRequestOverdueEvent)
	NotifyLowStock(ctx context.Context, availableCount int)
}

type ListNotificationsRequest struct {
	pagination.Pagination
	UnreadOnly bool `form:"unread_only"`
}

type ListNotificationsResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

// Reader exposes the stored-notification read APIs.
type Reader interface {
	ListForUser(ctx context.Context, userID string, req ListNotificationsRequest) (ListNotificationsResponse, error)
	ListForCustomer(ctx context.Context, customerID string, req ListNotificationsRequest) (ListNotificationsResponse, error)
	MarkRead(ctx context.Context, id string, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// Service is the full notification surface.
type Service interface {
	Dispatcher
	Reader
}

var (
	ErrNotFound         = errors.New("notification_not_found")
	ErrInvalidID        = errors.New("invalid_notification_id")
	ErrInvalidRecipient = errors.New("invalid_recipient")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
