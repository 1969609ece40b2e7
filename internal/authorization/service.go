package authorization

import (
	"context"
	"errors"

	"github.com/smallbiznis/coldchain/internal/identity"
)

const (
	ObjectEquipment       = "equipment"
	ObjectFaultReport     = "fault_report"
	ObjectMaintenance     = "maintenance"
	ObjectAllocationEntry = "allocation_entry"
	ObjectRestockRequest  = "restock_request"
	ObjectFridgeRequest   = "fridge_request"
	ObjectNotification    = "notification"
)

const (
	ActionEquipmentView     = "equipment.view"
	ActionEquipmentRegister = "equipment.register"
	ActionEquipmentAllocate = "equipment.allocate"
	ActionEquipmentScrap    = "equipment.scrap"

	ActionFaultReportView     = "fault_report.view"
	ActionFaultReportCreate   = "fault_report.create"
	ActionFaultReportAssign   = "fault_report.assign"
	ActionFaultReportDiagnose = "fault_report.diagnose"
	ActionFaultReportSchedule = "fault_report.schedule"
	ActionFaultReportRepair   = "fault_report.repair"
	ActionFaultReportClose    = "fault_report.close"
	ActionFaultReportEscalate = "fault_report.escalate"

	ActionMaintenanceView     = "maintenance.view"
	ActionMaintenanceSchedule = "maintenance.schedule"
	ActionMaintenanceStart    = "maintenance.start"
	ActionMaintenanceComplete = "maintenance.complete"
	ActionMaintenanceCancel   = "maintenance.cancel"

	ActionAllocationEntryView = "allocation_entry.view"

	ActionRestockRequestView   = "restock_request.view"
	ActionRestockRequestCreate = "restock_request.create"
	ActionRestockRequestClose  = "restock_request.close"

	ActionFridgeRequestView     = "fridge_request.view"
	ActionFridgeRequestCreate   = "fridge_request.create"
	ActionFridgeRequestReview   = "fridge_request.review"
	ActionFridgeRequestAllocate = "fridge_request.allocate"

	ActionNotificationView = "notification.view"
)

// Service answers whether an actor may perform an action on an object.
type Service interface {
	Authorize(ctx context.Context, actor identity.Actor, object string, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
