package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/coldchain/internal/authorization"
	"github.com/smallbiznis/coldchain/internal/clock"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	equipmentrepo "github.com/smallbiznis/coldchain/internal/equipment/repository"
	"github.com/smallbiznis/coldchain/internal/faultreport/domain"
	faultrepo "github.com/smallbiznis/coldchain/internal/faultreport/repository"
	"github.com/smallbiznis/coldchain/internal/identity"
	identitydomain "github.com/smallbiznis/coldchain/internal/identity/domain"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/reference"
	referencedomain "github.com/smallbiznis/coldchain/internal/reference/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noopDispatcher struct{}

func (noopDispatcher) NotifyFaultReported(context.Context, notificationdomain.FaultReportedEvent) {}
func (noopDispatcher) NotifyFaultEscalated(context.Context, notificationdomain.FaultEscalationEvent) {
}
func (noopDispatcher) NotifyRepairCompleted(context.Context, notificationdomain.RepairCompletedEvent) {
}
func (noopDispatcher) NotifyMaintenanceScheduled(context.Context, notificationdomain.MaintenanceScheduledEvent) {
}
func (noopDispatcher) NotifyMaintenanceOverdue(context.Context, notificationdomain.MaintenanceOverdueEvent) {
}
func (noopDispatcher) NotifyPurchaseRequested(context.Context, notificationdomain.PurchaseRequestedEvent) {
}
func (noopDispatcher) NotifyFridgeRequestSubmitted(context.Context, notificationdomain.FridgeRequestSubmittedEvent) {
}
func (noopDispatcher) NotifyFridgeRequestOverdue(context.Context, notificationdomain.FridgeRequestOverdueEvent) {
}
func (noopDispatcher) NotifyLowStock(context.Context, int) {}

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&domain.FaultReport{},
		&equipmentdomain.Equipment{},
		&referencedomain.Customer{},
		&identitydomain.User{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	node, _ := snowflake.NewNode(1)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := NewService(ServiceParam{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clk,
		Repo:      faultrepo.Provide(),
		Equipment: equipmentrepo.Provide(),
		Reference: reference.NewRepository(),
		Identity:  identity.NewRepository(),
		Notifier:  noopDispatcher{},
	})
	return &fixture{svc: svc, db: db, node: node, clock: clk}
}

func (f *fixture) seedCustomer(t *testing.T) snowflake.ID {
	t.Helper()
	customer := referencedomain.Customer{ID: f.node.Generate(), BusinessName: "Harbor Fishmongers", Active: true}
	if err := f.db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer.ID
}

func (f *fixture) seedTechnician(t *testing.T) snowflake.ID {
	t.Helper()
	user := identitydomain.User{ID: f.node.Generate(), Name: "Fiona Repairs", Role: identity.RoleFaultTechnician, Active: true}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("seed technician: %v", err)
	}
	return user.ID
}

func (f *fixture) seedUnit(t *testing.T, status equipmentdomain.Status, customerID *snowflake.ID) equipmentdomain.Equipment {
	t.Helper()
	unit := equipmentdomain.Equipment{
		ID:           f.node.Generate(),
		Model:        "CF-400",
		SerialNumber: "CF400-" + f.node.Generate().String(),
		Status:       status,
		CustomerID:   customerID,
	}
	if err := f.db.Create(&unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}
	return unit
}

var admin = identity.Actor{ID: "42", Role: identity.RoleAdministrator}

const validDescription = "Compressor cycles constantly and cabinet temperature will not drop below ten degrees"

func TestReportValidation(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)

	for _, description := range []string{"too short", string(make([]byte, 1001))} {
		_, err := f.svc.Report(context.Background(), domain.ReportRequest{
			CustomerID:  customerID.String(),
			Description: description,
			Actor:       admin,
		})
		if err != domain.ErrDescriptionLength {
			t.Errorf("description %q: err = %v, want ErrDescriptionLength", description[:7], err)
		}
	}
}

func TestReportFlipsEquipmentFaulty(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	unit := f.seedUnit(t, equipmentdomain.StatusAllocated, &customerID)

	report, err := f.svc.Report(context.Background(), domain.ReportRequest{
		EquipmentID: unit.ID.String(),
		CustomerID:  customerID.String(),
		Description: validDescription,
		Actor:       admin,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Status != domain.StatusReported {
		t.Errorf("status = %s, want reported", report.Status)
	}

	var updated equipmentdomain.Equipment
	if err := f.db.First(&updated, "id = ?", unit.ID).Error; err != nil {
		t.Fatalf("read unit: %v", err)
	}
	if updated.Status != equipmentdomain.StatusFaulty {
		t.Errorf("equipment status = %s, want faulty", updated.Status)
	}
	if updated.CustomerID == nil || *updated.CustomerID != customerID {
		t.Errorf("equipment lost its customer during fault intake")
	}
}

func TestReportDuplicateActive(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	unit := f.seedUnit(t, equipmentdomain.StatusAllocated, &customerID)

	if _, err := f.svc.Report(context.Background(), domain.ReportRequest{
		EquipmentID: unit.ID.String(),
		CustomerID:  customerID.String(),
		Description: validDescription,
		Actor:       admin,
	}); err != nil {
		t.Fatalf("first report: %v", err)
	}

	_, err := f.svc.Report(context.Background(), domain.ReportRequest{
		EquipmentID: unit.ID.String(),
		CustomerID:  customerID.String(),
		Description: validDescription,
		Actor:       admin,
	})
	if err != domain.ErrDuplicateActiveReport {
		t.Fatalf("err = %v, want ErrDuplicateActiveReport", err)
	}
}

func TestFullRepairFlow(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	technicianID := f.seedTechnician(t)
	unit := f.seedUnit(t, equipmentdomain.StatusAllocated, &customerID)
	ctx := context.Background()
	technician := identity.Actor{ID: technicianID.String(), Role: identity.RoleFaultTechnician}

	report, err := f.svc.Report(ctx, domain.ReportRequest{
		EquipmentID: unit.ID.String(),
		CustomerID:  customerID.String(),
		Description: validDescription,
		Actor:       admin,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if _, err := f.svc.AssignTechnician(ctx, report.ID.String(), technicianID.String(), admin); err != nil {
		t.Fatalf("AssignTechnician: %v", err)
	}

	cost := int64(120)
	if _, err := f.svc.Diagnose(ctx, domain.DiagnoseRequest{
		ReportID:      report.ID.String(),
		Actor:         technician,
		Diagnosis:     "worn door gasket",
		PartsRequired: "gasket kit",
		EstimatedCost: &cost,
	}); err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	scheduled := f.clock.Now().Add(48 * time.Hour)
	if _, err := f.svc.ScheduleRepair(ctx, report.ID.String(), technician, scheduled); err != nil {
		t.Fatalf("ScheduleRepair: %v", err)
	}
	if _, err := f.svc.StartRepair(ctx, report.ID.String(), technician); err != nil {
		t.Fatalf("StartRepair: %v", err)
	}

	resolved, err := f.svc.CompleteRepair(ctx, report.ID.String(), technician, "replaced gasket, verified pull-down")
	if err != nil {
		t.Fatalf("CompleteRepair: %v", err)
	}
	if resolved.Status != domain.StatusResolved || resolved.RepairDate == nil {
		t.Errorf("resolved = %+v, want resolved with repair date", resolved)
	}

	var updated equipmentdomain.Equipment
	if err := f.db.First(&updated, "id = ?", unit.ID).Error; err != nil {
		t.Fatalf("read unit: %v", err)
	}
	if updated.Status != equipmentdomain.StatusAllocated {
		t.Errorf("equipment status = %s, want allocated back to customer", updated.Status)
	}

	closed, err := f.svc.Close(ctx, report.ID.String(), admin)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Status != domain.StatusClosed {
		t.Errorf("status = %s, want closed", closed.Status)
	}
}

func TestDiagnoseByStrangerForbidden(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	technicianID := f.seedTechnician(t)
	unit := f.seedUnit(t, equipmentdomain.StatusAllocated, &customerID)
	ctx := context.Background()

	report, err := f.svc.Report(ctx, domain.ReportRequest{
		EquipmentID: unit.ID.String(),
		CustomerID:  customerID.String(),
		Description: validDescription,
		Actor:       admin,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if _, err := f.svc.AssignTechnician(ctx, report.ID.String(), technicianID.String(), admin); err != nil {
		t.Fatalf("AssignTechnician: %v", err)
	}

	stranger := identity.Actor{ID: f.node.Generate().String(), Role: identity.RoleFaultTechnician}
	_, err = f.svc.Diagnose(ctx, domain.DiagnoseRequest{
		ReportID:  report.ID.String(),
		Actor:     stranger,
		Diagnosis: "not my unit",
	})
	if err != authorization.ErrForbidden {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestSchedulePastDate(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	unit := f.seedUnit(t, equipmentdomain.StatusAllocated, &customerID)
	ctx := context.Background()

	report, err := f.svc.Report(ctx, domain.ReportRequest{
		EquipmentID: unit.ID.String(),
		CustomerID:  customerID.String(),
		Description: validDescription,
		Actor:       admin,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	_, err = f.svc.ScheduleRepair(ctx, report.ID.String(), admin, f.clock.Now().Add(-time.Hour))
	if err != domain.ErrPastScheduledDate {
		t.Fatalf("err = %v, want ErrPastScheduledDate", err)
	}
}

func TestCloseRequiresResolved(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	unit := f.seedUnit(t, equipmentdomain.StatusAllocated, &customerID)
	ctx := context.Background()

	report, err := f.svc.Report(ctx, domain.ReportRequest{
		EquipmentID: unit.ID.String(),
		CustomerID:  customerID.String(),
		Description: validDescription,
		Actor:       admin,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if _, err := f.svc.Close(ctx, report.ID.String(), admin); err != domain.ErrInvalidTransition {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveReplacementAdminOnly(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	unit := f.seedUnit(t, equipmentdomain.StatusAllocated, &customerID)
	ctx := context.Background()

	report, err := f.svc.Report(ctx, domain.ReportRequest{
		EquipmentID:        unit.ID.String(),
		CustomerID:         customerID.String(),
		Description:        validDescription,
		RequestReplacement: true,
		Actor:              admin,
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	technician := identity.Actor{ID: "7", Role: identity.RoleFaultTechnician}
	if _, err := f.svc.ApproveReplacement(ctx, report.ID.String(), technician); err != authorization.ErrForbidden {
		t.Fatalf("technician approve err = %v, want ErrForbidden", err)
	}

	approved, err := f.svc.ApproveReplacement(ctx, report.ID.String(), admin)
	if err != nil {
		t.Fatalf("admin approve: %v", err)
	}
	if !approved.ReplacementApproved {
		t.Errorf("ReplacementApproved not set")
	}
}
