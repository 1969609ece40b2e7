package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/clock"
	faultdomain "github.com/smallbiznis/coldchain/internal/faultreport/domain"
	fridgerequestdomain "github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
	inventorydomain "github.com/smallbiznis/coldchain/internal/inventory/domain"
	maintenancedomain "github.com/smallbiznis/coldchain/internal/maintenance/domain"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"go.uber.org/zap"
)

type fakeFaults struct {
	faultdomain.Service
	reports   []faultdomain.FaultReport
	err       error
	olderThan time.Duration
}

func (f *fakeFaults) Overdue(_ context.Context, olderThan time.Duration) ([]faultdomain.FaultReport, error) {
	f.olderThan = olderThan
	return f.reports, f.err
}

type fakeMaintenance struct {
	maintenancedomain.Service
	records []maintenancedomain.MaintenanceRecord
	err     error
}

func (f *fakeMaintenance) Overdue(context.Context) ([]maintenancedomain.MaintenanceRecord, error) {
	return f.records, f.err
}

type fakeRequests struct {
	fridgerequestdomain.Service
	requests  []fridgerequestdomain.FridgeRequest
	err       error
	olderThan time.Duration
}

func (f *fakeRequests) Overdue(_ context.Context, olderThan time.Duration) ([]fridgerequestdomain.FridgeRequest, error) {
	f.olderThan = olderThan
	return f.requests, f.err
}

type fakeInventory struct {
	inventorydomain.Service
	calls int
	err   error
}

func (f *fakeInventory) CheckAndRequestRestock(context.Context) (bool, int64, error) {
	f.calls++
	return false, 7, f.err
}

type recordingDispatcher struct {
	escalations    []notificationdomain.FaultEscalationEvent
	overdue        []notificationdomain.MaintenanceOverdueEvent
	requestOverdue []notificationdomain.FridgeRequestOverdueEvent
}

func (d *recordingDispatcher) NotifyFaultReported(context.Context, notificationdomain.FaultReportedEvent) {
}
func (d *recordingDispatcher) NotifyFaultEscalated(_ context.Context, event notificationdomain.FaultEscalationEvent) {
	d.escalations = append(d.escalations, event)
}
func (d *recordingDispatcher) NotifyRepairCompleted(context.Context, notificationdomain.RepairCompletedEvent) {
}
func (d *recordingDispatcher) NotifyMaintenanceScheduled(context.Context, notificationdomain.MaintenanceScheduledEvent) {
}
func (d *recordingDispatcher) NotifyMaintenanceOverdue(_ context.Context, event notificationdomain.MaintenanceOverdueEvent) {
	d.overdue = append(d.overdue, event)
}
func (d *recordingDispatcher) NotifyPurchaseRequested(context.Context, notificationdomain.PurchaseRequestedEvent) {
}
func (d *recordingDispatcher) NotifyFridgeRequestSubmitted(context.Context, notificationdomain.FridgeRequestSubmittedEvent) {
}
func (d *recordingDispatcher) NotifyFridgeRequestOverdue(_ context.Context, event notificationdomain.FridgeRequestOverdueEvent) {
	d.requestOverdue = append(d.requestOverdue, event)
}
func (d *recordingDispatcher) NotifyLowStock(context.Context, int) {}

type harness struct {
	scanner     *Scanner
	faults      *fakeFaults
	maintenance *fakeMaintenance
	requests    *fakeRequests
	inventory   *fakeInventory
	notifier    *recordingDispatcher
	clock       *clock.FakeClock
}

func newHarness(cfg Config) *harness {
	h := &harness{
		faults:      &fakeFaults{},
		maintenance: &fakeMaintenance{},
		requests:    &fakeRequests{},
		inventory:   &fakeInventory{},
		notifier:    &recordingDispatcher{},
		clock:       clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	h.scanner = NewWithConfig(zap.NewNop(), h.clock, cfg, h.faults, h.maintenance, h.requests, h.inventory, h.notifier)
	return h
}

func TestRunOnceEscalatesOverdueFaults(t *testing.T) {
	h := newHarness(Config{FaultOverdueAfter: 7 * 24 * time.Hour})
	node, _ := snowflake.NewNode(1)
	equipmentID := node.Generate()
	h.faults.reports = []faultdomain.FaultReport{
		{
			ID:           node.Generate(),
			EquipmentID:  &equipmentID,
			Status:       faultdomain.StatusReported,
			DateReported: h.clock.Now().Add(-10 * 24 * time.Hour),
		},
	}

	h.scanner.RunOnce(context.Background())

	if h.faults.olderThan != 7*24*time.Hour {
		t.Errorf("olderThan = %v, want 168h", h.faults.olderThan)
	}
	if len(h.notifier.escalations) != 1 {
		t.Fatalf("escalations = %d, want 1", len(h.notifier.escalations))
	}
	got := h.notifier.escalations[0]
	if got.AgeDays != 10 || got.EquipmentID != equipmentID {
		t.Errorf("escalation = %+v, want 10 day age", got)
	}
	if h.inventory.calls != 1 {
		t.Errorf("restock checks = %d, want 1", h.inventory.calls)
	}
}

func TestRunOnceFlagsOverdueMaintenance(t *testing.T) {
	h := newHarness(Config{})
	node, _ := snowflake.NewNode(1)
	record := maintenancedomain.MaintenanceRecord{
		ID:            node.Generate(),
		EquipmentID:   node.Generate(),
		TechnicianID:  node.Generate(),
		Status:        maintenancedomain.StatusScheduled,
		ScheduledDate: h.clock.Now().Add(-48 * time.Hour),
	}
	h.maintenance.records = []maintenancedomain.MaintenanceRecord{record}

	h.scanner.RunOnce(context.Background())

	if len(h.notifier.overdue) != 1 {
		t.Fatalf("overdue events = %d, want 1", len(h.notifier.overdue))
	}
	got := h.notifier.overdue[0]
	if got.RecordID != record.ID || got.TechnicianID != record.TechnicianID {
		t.Errorf("event = %+v, want record %s", got, record.ID)
	}
}

func TestRunOnceFlagsOverdueFridgeRequests(t *testing.T) {
	h := newHarness(Config{RequestOverdueAfter: 7 * 24 * time.Hour})
	node, _ := snowflake.NewNode(1)
	request := fridgerequestdomain.FridgeRequest{
		ID:          node.Generate(),
		CustomerID:  node.Generate(),
		Status:      fridgerequestdomain.StatusPending,
		RequestDate: h.clock.Now().Add(-9 * 24 * time.Hour),
	}
	h.requests.requests = []fridgerequestdomain.FridgeRequest{request}

	h.scanner.RunOnce(context.Background())

	if h.requests.olderThan != 7*24*time.Hour {
		t.Errorf("olderThan = %v, want 168h", h.requests.olderThan)
	}
	if len(h.notifier.requestOverdue) != 1 {
		t.Fatalf("overdue request events = %d, want 1", len(h.notifier.requestOverdue))
	}
	got := h.notifier.requestOverdue[0]
	if got.RequestID != request.ID || got.CustomerID != request.CustomerID || got.AgeDays != 9 {
		t.Errorf("event = %+v, want request %s aged 9 days", got, request.ID)
	}
}

func TestRunOnceTruncatesToBatchSize(t *testing.T) {
	h := newHarness(Config{BatchSize: 2})
	node, _ := snowflake.NewNode(1)
	for i := 0; i < 5; i++ {
		h.faults.reports = append(h.faults.reports, faultdomain.FaultReport{
			ID:           node.Generate(),
			Status:       faultdomain.StatusReported,
			DateReported: h.clock.Now().Add(-30 * 24 * time.Hour),
		})
	}

	h.scanner.RunOnce(context.Background())

	if len(h.notifier.escalations) != 2 {
		t.Errorf("escalations = %d, want batch size 2", len(h.notifier.escalations))
	}
}

func TestRunOnceContinuesPastJobErrors(t *testing.T) {
	h := newHarness(Config{})
	h.faults.err = errors.New("store down")
	h.maintenance.err = errors.New("store down")

	h.scanner.RunOnce(context.Background())

	if h.inventory.calls != 1 {
		t.Errorf("restock checks = %d, want 1 despite earlier job failures", h.inventory.calls)
	}
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	h := newHarness(Config{ScanInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.scanner.RunForever(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scanner did not stop after cancellation")
	}
	if h.inventory.calls != 1 {
		t.Errorf("restock checks = %d, want the immediate first run", h.inventory.calls)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.ScanInterval != time.Hour {
		t.Errorf("interval = %v, want 1h", cfg.ScanInterval)
	}
	if cfg.FaultOverdueAfter != 7*24*time.Hour {
		t.Errorf("fault cutoff = %v, want 168h", cfg.FaultOverdueAfter)
	}
	if cfg.RequestOverdueAfter != 7*24*time.Hour {
		t.Errorf("request cutoff = %v, want 168h", cfg.RequestOverdueAfter)
	}
	if cfg.BatchSize != 100 {
		t.Errorf("batch size = %d, want 100", cfg.BatchSize)
	}
}
