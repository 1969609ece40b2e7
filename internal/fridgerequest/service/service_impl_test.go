package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/coldchain/internal/clock"
	"github.com/smallbiznis/coldchain/internal/config"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	equipmentrepo "github.com/smallbiznis/coldchain/internal/equipment/repository"
	equipmentservice "github.com/smallbiznis/coldchain/internal/equipment/service"
	"github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
	fridgerequestrepo "github.com/smallbiznis/coldchain/internal/fridgerequest/repository"
	"github.com/smallbiznis/coldchain/internal/identity"
	inventorydomain "github.com/smallbiznis/coldchain/internal/inventory/domain"
	inventoryrepo "github.com/smallbiznis/coldchain/internal/inventory/repository"
	inventoryservice "github.com/smallbiznis/coldchain/internal/inventory/service"
	ledgerdomain "github.com/smallbiznis/coldchain/internal/ledger/domain"
	ledgerrepo "github.com/smallbiznis/coldchain/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/coldchain/internal/ledger/service"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/reference"
	referencedomain "github.com/smallbiznis/coldchain/internal/reference/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingDispatcher struct {
	submitted []notificationdomain.FridgeRequestSubmittedEvent
}

func (d *recordingDispatcher) NotifyFaultReported(context.Context, notificationdomain.FaultReportedEvent) {
}
func (d *recordingDispatcher) NotifyFaultEscalated(context.Context, notificationdomain.FaultEscalationEvent) {
}
func (d *recordingDispatcher) NotifyRepairCompleted(context.Context, notificationdomain.RepairCompletedEvent) {
}
func (d *recordingDispatcher) NotifyMaintenanceScheduled(context.Context, notificationdomain.MaintenanceScheduledEvent) {
}
func (d *recordingDispatcher) NotifyMaintenanceOverdue(context.Context, notificationdomain.MaintenanceOverdueEvent) {
}
func (d *recordingDispatcher) NotifyPurchaseRequested(context.Context, notificationdomain.PurchaseRequestedEvent) {
}
func (d *recordingDispatcher) NotifyFridgeRequestSubmitted(_ context.Context, event notificationdomain.FridgeRequestSubmittedEvent) {
	d.submitted = append(d.submitted, event)
}
func (d *recordingDispatcher) NotifyFridgeRequestOverdue(context.Context, notificationdomain.FridgeRequestOverdueEvent) {
}
func (d *recordingDispatcher) NotifyLowStock(context.Context, int) {}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	notifier *recordingDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&domain.FridgeRequest{},
		&equipmentdomain.Equipment{},
		&ledgerdomain.AllocationEntry{},
		&referencedomain.Customer{},
		&referencedomain.Supplier{},
		&inventorydomain.PurchaseRequest{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	node, _ := snowflake.NewNode(1)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	logger := zap.NewNop()
	notifier := &recordingDispatcher{}

	ledgerSvc := ledgerservice.NewService(ledgerservice.ServiceParam{
		DB:    db,
		Log:   logger,
		GenID: node,
		Clock: clk,
		Repo:  ledgerrepo.Provide(),
	})
	inventorySvc := inventoryservice.NewService(inventoryservice.ServiceParam{
		DB:    db,
		Log:   logger,
		GenID: node,
		Clock: clk,
		Config: config.Config{
			RestockThreshold:     0,
			RestockQuantity:      10,
			RestockEstimatedCost: 5000,
		},
		Repo:     inventoryrepo.Provide(),
		Notifier: notifier,
	})
	equipmentSvc := equipmentservice.NewService(equipmentservice.ServiceParam{
		DB:        db,
		Log:       logger,
		GenID:     node,
		Clock:     clk,
		Repo:      equipmentrepo.Provide(),
		Reference: reference.NewRepository(),
		Ledger:    ledgerSvc,
		Inventory: inventorySvc,
	})
	svc := NewService(ServiceParam{
		DB:            db,
		Log:           logger,
		GenID:         node,
		Clock:         clk,
		Repo:          fridgerequestrepo.Provide(),
		Equipment:     equipmentSvc,
		EquipmentRepo: equipmentrepo.Provide(),
		Reference:     reference.NewRepository(),
		Notifier:      notifier,
	})
	return &fixture{svc: svc, db: db, node: node, clock: clk, notifier: notifier}
}

func (f *fixture) seedCustomer(t *testing.T) snowflake.ID {
	t.Helper()
	customer := referencedomain.Customer{ID: f.node.Generate(), BusinessName: "Corner Grocer", Active: true}
	if err := f.db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer.ID
}

func (f *fixture) seedAvailableUnit(t *testing.T) equipmentdomain.Equipment {
	t.Helper()
	unit := equipmentdomain.Equipment{
		ID:           f.node.Generate(),
		Model:        "CF-400",
		SerialNumber: fmt.Sprintf("CF400-%d", f.node.Generate()),
		Status:       equipmentdomain.StatusAvailable,
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	if err := f.db.Create(&unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	return unit
}

func (f *fixture) submit(t *testing.T, customerID snowflake.ID, quantity int) *domain.FridgeRequest {
	t.Helper()
	request, err := f.svc.Submit(context.Background(), domain.SubmitRequest{
		CustomerID:    customerID.String(),
		Quantity:      quantity,
		Justification: "opening a second display aisle",
		Actor:         identity.Actor{ID: "77", Role: identity.RoleCustomer},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return request
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)

	request := f.submit(t, customerID, 3)

	if request.Status != domain.StatusPending {
		t.Errorf("status = %s, want pending", request.Status)
	}
	if request.CustomerID != customerID || request.Quantity != 3 {
		t.Errorf("request = %+v, want customer %s quantity 3", request, customerID)
	}
	if !request.RequestDate.Equal(f.clock.Now()) {
		t.Errorf("request date = %v, want %v", request.RequestDate, f.clock.Now())
	}
	if len(f.notifier.submitted) != 1 {
		t.Fatalf("submitted events = %d, want 1", len(f.notifier.submitted))
	}
	if got := f.notifier.submitted[0]; got.RequestID != request.ID || got.Quantity != 3 {
		t.Errorf("event = %+v, want request %s", got, request.ID)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	ctx := context.Background()
	actor := identity.Actor{ID: "77", Role: identity.RoleCustomer}

	cases := []struct {
		name string
		req  domain.SubmitRequest
		want error
	}{
		{"zero quantity", domain.SubmitRequest{CustomerID: customerID.String(), Quantity: 0, Justification: "opening a second display aisle", Actor: actor}, domain.ErrInvalidQuantity},
		{"quantity above cap", domain.SubmitRequest{CustomerID: customerID.String(), Quantity: 51, Justification: "opening a second display aisle", Actor: actor}, domain.ErrInvalidQuantity},
		{"short justification", domain.SubmitRequest{CustomerID: customerID.String(), Quantity: 2, Justification: "too short", Actor: actor}, domain.ErrJustificationLength},
		{"unknown customer", domain.SubmitRequest{CustomerID: f.node.Generate().String(), Quantity: 2, Justification: "opening a second display aisle", Actor: actor}, domain.ErrCustomerNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Submit(ctx, tc.req); err != tc.want {
				t.Errorf("Submit err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSubmitRejectsDuplicatePending(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	ctx := context.Background()
	actor := identity.Actor{ID: "77", Role: identity.RoleCustomer}

	f.submit(t, customerID, 2)

	_, err := f.svc.Submit(ctx, domain.SubmitRequest{
		CustomerID:    customerID.String(),
		Quantity:      1,
		Justification: "opening a second display aisle",
		Actor:         actor,
	})
	if err != domain.ErrDuplicatePending {
		t.Fatalf("duplicate submit err = %v, want ErrDuplicatePending", err)
	}

	// The guard only looks back thirty days.
	f.clock.Advance(31 * 24 * time.Hour)
	if _, err := f.svc.Submit(ctx, domain.SubmitRequest{
		CustomerID:    customerID.String(),
		Quantity:      1,
		Justification: "opening a second display aisle",
		Actor:         actor,
	}); err != nil {
		t.Fatalf("submit after window: %v", err)
	}
}

func TestReviewApproveTransitions(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	ctx := context.Background()
	liaison := identity.Actor{ID: "9", Role: identity.RoleInventoryLiaison}

	request := f.submit(t, customerID, 4)

	reviewed, err := f.svc.Review(ctx, request.ID.String(), liaison)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if reviewed.Status != domain.StatusUnderReview {
		t.Errorf("status = %s, want under_review", reviewed.Status)
	}

	approved, err := f.svc.Approve(ctx, domain.ApproveRequest{
		RequestID:        request.ID.String(),
		ApprovedQuantity: 2,
		Notes:            "budget only covers two",
		Actor:            liaison,
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != domain.StatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.ApprovedQuantity == nil || *approved.ApprovedQuantity != 2 {
		t.Errorf("approved quantity = %v, want 2", approved.ApprovedQuantity)
	}
	if approved.ApprovedBy != "9" || approved.ApprovalDate == nil {
		t.Errorf("approval stamp = %+v", approved)
	}

	if _, err := f.svc.Review(ctx, request.ID.String(), liaison); err != domain.ErrInvalidTransition {
		t.Fatalf("review approved err = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveDefaultsToRequestedQuantity(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	request := f.submit(t, customerID, 5)

	approved, err := f.svc.Approve(context.Background(), domain.ApproveRequest{
		RequestID: request.ID.String(),
		Actor:     identity.Actor{ID: "42", Role: identity.RoleAdministrator},
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.ApprovedQuantity == nil || *approved.ApprovedQuantity != 5 {
		t.Errorf("approved quantity = %v, want requested 5", approved.ApprovedQuantity)
	}
}

func TestRejectRecordsReason(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	ctx := context.Background()
	admin := identity.Actor{ID: "42", Role: identity.RoleAdministrator}

	request := f.submit(t, customerID, 2)

	rejected, err := f.svc.Reject(ctx, request.ID.String(), admin, "no capacity this quarter")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != domain.StatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if rejected.ApprovalNotes != "no capacity this quarter" || rejected.ApprovalDate == nil {
		t.Errorf("rejection stamp = %+v", rejected)
	}

	if _, err := f.svc.Reject(ctx, request.ID.String(), admin, "again"); err != domain.ErrInvalidTransition {
		t.Fatalf("reject rejected err = %v, want ErrInvalidTransition", err)
	}
}

func TestAllocateHandsUnitsToCustomer(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	ctx := context.Background()
	liaison := identity.Actor{ID: "9", Role: identity.RoleInventoryLiaison}

	first := f.seedAvailableUnit(t)
	second := f.seedAvailableUnit(t)

	request := f.submit(t, customerID, 2)
	if _, err := f.svc.Approve(ctx, domain.ApproveRequest{RequestID: request.ID.String(), Actor: liaison}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	allocated, err := f.svc.Allocate(ctx, domain.AllocateRequest{
		RequestID:    request.ID.String(),
		EquipmentIDs: []string{first.ID.String(), second.ID.String()},
		Actor:        liaison,
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if allocated.Status != domain.StatusAllocated {
		t.Errorf("status = %s, want allocated", allocated.Status)
	}
	if allocated.AllocatedBy != "9" || allocated.AllocationDate == nil {
		t.Errorf("allocation stamp = %+v", allocated)
	}

	var unit equipmentdomain.Equipment
	if err := f.db.First(&unit, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("read unit: %v", err)
	}
	if unit.Status != equipmentdomain.StatusAllocated || unit.CustomerID == nil || *unit.CustomerID != customerID {
		t.Errorf("unit = %+v, want allocated to %s", unit, customerID)
	}

	var entries int64
	f.db.Model(&ledgerdomain.AllocationEntry{}).Count(&entries)
	if entries != 2 {
		t.Errorf("ledger entries = %d, want 2", entries)
	}
}

func TestAllocateValidation(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	ctx := context.Background()
	liaison := identity.Actor{ID: "9", Role: identity.RoleInventoryLiaison}

	unit := f.seedAvailableUnit(t)
	request := f.submit(t, customerID, 2)

	if _, err := f.svc.Allocate(ctx, domain.AllocateRequest{
		RequestID: request.ID.String(),
		Actor:     liaison,
	}); err != domain.ErrNoUnitsSelected {
		t.Fatalf("no units err = %v, want ErrNoUnitsSelected", err)
	}

	// Still pending, so units cannot be handed out yet.
	if _, err := f.svc.Allocate(ctx, domain.AllocateRequest{
		RequestID:    request.ID.String(),
		EquipmentIDs: []string{unit.ID.String()},
		Actor:        liaison,
	}); err != domain.ErrInvalidTransition {
		t.Fatalf("pending allocate err = %v, want ErrInvalidTransition", err)
	}

	if _, err := f.svc.Approve(ctx, domain.ApproveRequest{RequestID: request.ID.String(), ApprovedQuantity: 1, Actor: liaison}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := f.svc.Allocate(ctx, domain.AllocateRequest{
		RequestID:    request.ID.String(),
		EquipmentIDs: []string{unit.ID.String(), f.node.Generate().String()},
		Actor:        liaison,
	}); err != domain.ErrQuantityExceedsApproved {
		t.Fatalf("over approved err = %v, want ErrQuantityExceedsApproved", err)
	}
}

func TestAllocateRequiresAvailableStock(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	ctx := context.Background()
	liaison := identity.Actor{ID: "9", Role: identity.RoleInventoryLiaison}

	request := f.submit(t, customerID, 2)
	if _, err := f.svc.Approve(ctx, domain.ApproveRequest{RequestID: request.ID.String(), Actor: liaison}); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	unit := f.seedAvailableUnit(t)
	_, err := f.svc.Allocate(ctx, domain.AllocateRequest{
		RequestID:    request.ID.String(),
		EquipmentIDs: []string{unit.ID.String(), f.node.Generate().String()},
		Actor:        liaison,
	})
	if err != domain.ErrNotEnoughStock {
		t.Fatalf("err = %v, want ErrNotEnoughStock", err)
	}
}

func TestCompleteClosesAllocatedRequest(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	ctx := context.Background()
	liaison := identity.Actor{ID: "9", Role: identity.RoleInventoryLiaison}

	unit := f.seedAvailableUnit(t)
	request := f.submit(t, customerID, 1)
	if _, err := f.svc.Approve(ctx, domain.ApproveRequest{RequestID: request.ID.String(), Actor: liaison}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.svc.Allocate(ctx, domain.AllocateRequest{
		RequestID:    request.ID.String(),
		EquipmentIDs: []string{unit.ID.String()},
		Actor:        liaison,
	}); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	completed, err := f.svc.Complete(ctx, request.ID.String(), liaison)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", completed.Status)
	}
}

func TestOverdueListsStalePendingRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := f.submit(t, f.seedCustomer(t), 1)
	f.clock.Advance(8 * 24 * time.Hour)
	fresh := f.submit(t, f.seedCustomer(t), 1)

	overdue, err := f.svc.Overdue(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != stale.ID {
		t.Fatalf("overdue = %+v, want only %s", overdue, stale.ID)
	}
	_ = fresh
}

func TestListFiltersByStatusAndCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	liaison := identity.Actor{ID: "9", Role: identity.RoleInventoryLiaison}

	firstCustomer := f.seedCustomer(t)
	secondCustomer := f.seedCustomer(t)
	first := f.submit(t, firstCustomer, 1)
	f.submit(t, secondCustomer, 1)

	if _, err := f.svc.Reject(ctx, first.ID.String(), liaison, "not this quarter"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	resp, err := f.svc.List(ctx, domain.ListRequestsRequest{Status: string(domain.StatusRejected)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Requests) != 1 || resp.Requests[0].ID != first.ID {
		t.Fatalf("rejected list = %+v, want only %s", resp.Requests, first.ID)
	}

	resp, err = f.svc.List(ctx, domain.ListRequestsRequest{CustomerID: secondCustomer.String()})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Requests) != 1 || resp.Requests[0].CustomerID != secondCustomer {
		t.Fatalf("customer list = %+v, want one for %s", resp.Requests, secondCustomer)
	}

	if _, err := f.svc.List(ctx, domain.ListRequestsRequest{Status: "bogus"}); err != domain.ErrInvalidStatus {
		t.Fatalf("bogus status err = %v, want ErrInvalidStatus", err)
	}
}
