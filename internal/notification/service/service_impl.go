package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/clock"
	"github.com/smallbiznis/coldchain/internal/identity"
	identitydomain "github.com/smallbiznis/coldchain/internal/identity/domain"
	"github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Identity identitydomain.Repository
	Metrics  *metrics.Metrics `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	identity identitydomain.Repository
	metrics  *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("notification.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		identity: p.Identity,
		metrics:  p.Metrics,
	}
}

// draft is an unsaved notification before recipient fan-out.
type draft struct {
	message      string
	ntype        domain.NotificationType
	priority     domain.NotificationPriority
	entityType   string
	entityID     snowflake.ID
	triggerEvent string
	data         map[string]any
}

func (s *service) NotifyFaultReported(ctx context.Context, event domain.FaultReportedEvent) {
	d := draft{
		message: fmt.Sprintf("Fault reported for equipment %s: %s",
			event.EquipmentID, truncate(event.Description, 120)),
		ntype:        domain.TypeFault,
		priority:     domain.PriorityHigh,
		entityType:   "fault_report",
		entityID:     event.ReportID,
		triggerEvent: "fault.reported",
		data: map[string]any{
			"equipment_id":        event.EquipmentID.String(),
			"request_replacement": event.RequestReplacement,
		},
	}
	s.fanOutToRoles(ctx, d, identity.RoleFaultTechnician, identity.RoleAdministrator)
	if event.CustomerID != 0 {
		ack := d
		ack.priority = domain.PriorityMedium
		ack.message = fmt.Sprintf("Your fault report for equipment %s was received", event.EquipmentID)
		s.storeForCustomer(ctx, ack, event.CustomerID)
	}
}

func (s *service) NotifyFaultEscalated(ctx context.Context, event domain.FaultEscalationEvent) {
	d := draft{
		message: fmt.Sprintf("Fault report %s has been open for %d days (status %s)",
			event.ReportID, event.AgeDays, event.Status),
		ntype:        domain.TypeWarning,
		priority:     domain.PriorityHigh,
		entityType:   "fault_report",
		entityID:     event.ReportID,
		triggerEvent: "fault.overdue",
		data: map[string]any{
			"equipment_id": event.EquipmentID.String(),
			"age_days":     event.AgeDays,
		},
	}
	s.fanOutToRoles(ctx, d, identity.RoleFaultTechnician, identity.RoleAdministrator)
}

func (s *service) NotifyRepairCompleted(ctx context.Context, event domain.RepairCompletedEvent) {
	if event.CustomerID == 0 {
		return
	}
	s.storeForCustomer(ctx, draft{
		message:      fmt.Sprintf("Repair completed for equipment %s", event.EquipmentID),
		ntype:        domain.TypeFault,
		priority:     domain.PriorityMedium,
		entityType:   "fault_report",
		entityID:     event.ReportID,
		triggerEvent: "fault.repair_completed",
	}, event.CustomerID)
}

func (s *service) NotifyMaintenanceScheduled(ctx context.Context, event domain.MaintenanceScheduledEvent) {
	d := draft{
		message: fmt.Sprintf("%s maintenance scheduled for equipment %s on %s",
			event.MaintenanceType, event.EquipmentID, event.ScheduledDate.Format("2006-01-02 15:04")),
		ntype:        domain.TypeMaintenance,
		priority:     domain.PriorityMedium,
		entityType:   "maintenance_record",
		entityID:     event.RecordID,
		triggerEvent: "maintenance.scheduled",
		data: map[string]any{
			"equipment_id": event.EquipmentID.String(),
		},
	}
	s.storeForUser(ctx, d, event.TechnicianID)
	if event.CustomerID != nil && *event.CustomerID != 0 {
		s.storeForCustomer(ctx, d, *event.CustomerID)
	}
}

func (s *service) NotifyMaintenanceOverdue(ctx context.Context, event domain.MaintenanceOverdueEvent) {
	s.storeForUser(ctx, draft{
		message: fmt.Sprintf("Maintenance %s for equipment %s was due %s and has not started",
			event.RecordID, event.EquipmentID, event.ScheduledDate.Format("2006-01-02")),
		ntype:        domain.TypeWarning,
		priority:     domain.PriorityHigh,
		entityType:   "maintenance_record",
		entityID:     event.RecordID,
		triggerEvent: "maintenance.overdue",
	}, event.TechnicianID)
}

func (s *service) NotifyPurchaseRequested(ctx context.Context, event domain.PurchaseRequestedEvent) {
	d := draft{
		message:      fmt.Sprintf("Purchase request for %d units: %s", event.Quantity, event.Reason),
		ntype:        domain.TypePurchase,
		priority:     domain.PriorityHigh,
		entityType:   "purchase_request",
		entityID:     event.RequestID,
		triggerEvent: "purchase.requested",
	}
	s.fanOutToRoles(ctx, d, identity.RolePurchasingManager, identity.RoleInventoryLiaison)
}

func (s *service) NotifyFridgeRequestSubmitted(ctx context.Context, event domain.FridgeRequestSubmittedEvent) {
	d := draft{
		message: fmt.Sprintf("Customer %s requested %d new fridges",
			event.CustomerID, event.Quantity),
		ntype:        domain.TypeInfo,
		priority:     domain.PriorityMedium,
		entityType:   "fridge_request",
		entityID:     event.RequestID,
		triggerEvent: "fridge_request.submitted",
		data: map[string]any{
			"customer_id": event.CustomerID.String(),
			"quantity":    event.Quantity,
		},
	}
	s.fanOutToRoles(ctx, d, identity.RoleInventoryLiaison, identity.RoleAdministrator)
	if event.CustomerID != 0 {
		ack := d
		ack.message = fmt.Sprintf("Your request for %d new fridges was received", event.Quantity)
		s.storeForCustomer(ctx, ack, event.CustomerID)
	}
}

func (s *service) NotifyFridgeRequestOverdue(ctx context.Context, event domain.FridgeRequestOverdueEvent) {
	d := draft{
		message: fmt.Sprintf("Fridge request %s from customer %s has been pending for %d days",
			event.RequestID, event.CustomerID, event.AgeDays),
		ntype:        domain.TypeWarning,
		priority:     domain.PriorityHigh,
		entityType:   "fridge_request",
		entityID:     event.RequestID,
		triggerEvent: "fridge_request.overdue",
		data: map[string]any{
			"customer_id": event.CustomerID.String(),
			"age_days":    event.AgeDays,
		},
	}
	s.fanOutToRoles(ctx, d, identity.RoleInventoryLiaison, identity.RoleAdministrator)
}

func (s *service) NotifyLowStock(ctx context.Context, availableCount int) {
	d := draft{
		message:      fmt.Sprintf("Low stock: only %d fridges available", availableCount),
		ntype:        domain.TypeWarning,
		priority:     domain.PriorityHigh,
		triggerEvent: "inventory.low_stock",
		data: map[string]any{
			"available_count": availableCount,
		},
	}
	s.fanOutToRoles(ctx, d, identity.RoleInventoryLiaison, identity.RoleAdministrator)
}

func (s *service) fanOutToRoles(ctx context.Context, d draft, roles ...string) {
	var notifications []domain.Notification
	for _, role := range roles {
		users, err := s.identity.ListByRole(ctx, s.db, role)
		if err != nil {
			s.log.Warn("recipient lookup failed, skipping role",
				zap.String("role", role),
				zap.String("trigger_event", d.triggerEvent),
				zap.Error(err),
			)
			continue
		}
		for _, user := range users {
			userID := user.ID
			notifications = append(notifications, s.build(d, &userID, nil))
		}
	}
	s.store(ctx, d, notifications)
}

func (s *service) storeForUser(ctx context.Context, d draft, userID snowflake.ID) {
	if userID == 0 {
		return
	}
	s.store(ctx, d, []domain.Notification{s.build(d, &userID, nil)})
}

func (s *service) storeForCustomer(ctx context.Context, d draft, customerID snowflake.ID) {
	if customerID == 0 {
		return
	}
	s.store(ctx, d, []domain.Notification{s.build(d, nil, &customerID)})
}

func (s *service) build(d draft, userID, customerID *snowflake.ID) domain.Notification {
	notification := domain.Notification{
		ID:                  s.genID.Generate(),
		Message:             d.message,
		Type:                d.ntype,
		Priority:            d.priority,
		RecipientUserID:     userID,
		RecipientCustomerID: customerID,
		RelatedEntityType:   d.entityType,
		TriggerEvent:        d.triggerEvent,
		SentAt:              s.clock.Now(),
		CreatedAt:           s.clock.Now(),
	}
	if d.entityID != 0 {
		entityID := d.entityID
		notification.RelatedEntityID = &entityID
	}
	if len(d.data) > 0 {
		if raw, err := json.Marshal(d.data); err == nil {
			notification.AdditionalData = raw
		}
	}
	return notification
}

// store persists the fan-out; failures are logged and swallowed so the
// dispatcher can never fail a workflow mutation.
func (s *service) store(ctx context.Context, d draft, notifications []domain.Notification) {
	if len(notifications) == 0 {
		s.metrics.RecordNotification(string(d.ntype), "no_recipients")
		return
	}
	if err := s.repo.Insert(ctx, s.db, notifications); err != nil {
		s.log.Warn("failed to store notifications",
			zap.String("trigger_event", d.triggerEvent),
			zap.Int("count", len(notifications)),
			zap.Error(err),
		)
		s.metrics.RecordNotification(string(d.ntype), "failed")
		return
	}
	s.metrics.RecordNotification(string(d.ntype), "stored")
}

func (s *service) ListForUser(ctx context.Context, userID string, req domain.ListNotificationsRequest) (domain.ListNotificationsResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil || id == 0 {
		return domain.ListNotificationsResponse{}, domain.ErrInvalidRecipient
	}
	return s.list(ctx, domain.NotificationFilter{RecipientUserID: id}, req)
}

func (s *service) ListForCustomer(ctx context.Context, customerID string, req domain.ListNotificationsRequest) (domain.ListNotificationsResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(customerID))
	if err != nil || id == 0 {
		return domain.ListNotificationsResponse{}, domain.ErrInvalidRecipient
	}
	return s.list(ctx, domain.NotificationFilter{RecipientCustomerID: id}, req)
}

func (s *service) list(ctx context.Context, filter domain.NotificationFilter, req domain.ListNotificationsRequest) (domain.ListNotificationsResponse, error) {
	page := req.Pagination.Normalize()
	cursor, err := pagination.Decode(page.PageToken)
	if err != nil {
		return domain.ListNotificationsResponse{}, domain.ErrInvalidPageToken
	}
	filter.UnreadOnly = req.UnreadOnly
	filter.AfterID = cursor.ID
	filter.Limit = page.PageSize + 1

	notifications, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListNotificationsResponse{}, err
	}

	notifications, pageInfo := pagination.BuildPageInfo(notifications, page.PageSize, func(n domain.Notification) pagination.Cursor {
		return pagination.Cursor{ID: n.ID, CreatedAt: n.CreatedAt}
	})

	return domain.ListNotificationsResponse{
		PageInfo:      pageInfo,
		Notifications: notifications,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, id string, userID string) error {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.ErrInvalidID
	}
	owner, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil || owner == 0 {
		return domain.ErrInvalidRecipient
	}

	notification, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return err
	}
	if notification == nil {
		return domain.ErrNotFound
	}
	if notification.RecipientUserID == nil || *notification.RecipientUserID != owner {
		return domain.ErrNotFound
	}
	if notification.Read {
		return nil
	}
	return s.repo.MarkRead(ctx, s.db, parsed)
}

func (s *service) MarkAllRead(ctx context.Context, userID string) error {
	owner, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil || owner == 0 {
		return domain.ErrInvalidRecipient
	}
	return s.repo.MarkAllRead(ctx, s.db, owner)
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	owner, err := snowflake.ParseString(strings.TrimSpace(userID))
	if err != nil || owner == 0 {
		return 0, domain.ErrInvalidRecipient
	}
	return s.repo.CountUnread(ctx, s.db, owner)
}

func truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
