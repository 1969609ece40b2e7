package scanner

import (
	"context"
	"time"

	"github.com/smallbiznis/coldchain/internal/clock"
	"github.com/smallbiznis/coldchain/internal/config"
	faultdomain "github.com/smallbiznis/coldchain/internal/faultreport/domain"
	fridgerequestdomain "github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
	inventorydomain "github.com/smallbiznis/coldchain/internal/inventory/domain"
	maintenancedomain "github.com/smallbiznis/coldchain/internal/maintenance/domain"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	jobOverdueFaults      = "overdue_faults"
	jobOverdueMaintenance = "overdue_maintenance"
	jobOverdueRequests    = "overdue_fridge_requests"
	jobRestockCheck       = "restock_check"
)

// Config controls the periodic scan. Zero values take defaults.
type Config struct {
	ScanInterval        time.Duration
	FaultOverdueAfter   time.Duration
	RequestOverdueAfter time.Duration
	BatchSize           int
}

func (c Config) withDefaults() Config {
	if c.ScanInterval <= 0 {
		c.ScanInterval = time.Hour
	}
	if c.FaultOverdueAfter <= 0 {
		c.FaultOverdueAfter = 7 * 24 * time.Hour
	}
	if c.RequestOverdueAfter <= 0 {
		c.RequestOverdueAfter = 7 * 24 * time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	return c
}

type Param struct {
	fx.In

	Log            *zap.Logger
	Clock          clock.Clock
	AppConfig      config.Config
	Faults         faultdomain.Service
	Maintenance    maintenancedomain.Service
	FridgeRequests fridgerequestdomain.Service
	Inventory      inventorydomain.Service
	Notifier       notificationdomain.Dispatcher
}

// Scanner walks open workflows for overdue items and runs the restock
// check. It holds no locks of its own; every finding triggers separately
// transactional calls and a failure on one item never stops the run.
type Scanner struct {
	log         *zap.Logger
	clock       clock.Clock
	cfg         Config
	faults      faultdomain.Service
	maintenance maintenancedomain.Service
	requests    fridgerequestdomain.Service
	inventory   inventorydomain.Service
	notifier    notificationdomain.Dispatcher
	metrics     *metrics.ScannerMetrics
}

func New(p Param) *Scanner {
	log := p.Log.Named("scanner")
	cfg := Config{BatchSize: p.AppConfig.ScanBatchSize}
	if d, err := time.ParseDuration(p.AppConfig.ScanInterval); err == nil {
		cfg.ScanInterval = d
	} else {
		log.Warn("invalid scan interval, using default", zap.String("value", p.AppConfig.ScanInterval))
	}
	if d, err := time.ParseDuration(p.AppConfig.FaultOverdueAfter); err == nil {
		cfg.FaultOverdueAfter = d
	} else {
		log.Warn("invalid fault overdue cutoff, using default", zap.String("value", p.AppConfig.FaultOverdueAfter))
	}
	if d, err := time.ParseDuration(p.AppConfig.RequestOverdueAfter); err == nil {
		cfg.RequestOverdueAfter = d
	} else {
		log.Warn("invalid request overdue cutoff, using default", zap.String("value", p.AppConfig.RequestOverdueAfter))
	}
	return NewWithConfig(log, p.Clock, cfg, p.Faults, p.Maintenance, p.FridgeRequests, p.Inventory, p.Notifier)
}

func NewWithConfig(
	log *zap.Logger,
	clk clock.Clock,
	cfg Config,
	faults faultdomain.Service,
	maintenance maintenancedomain.Service,
	requests fridgerequestdomain.Service,
	inventory inventorydomain.Service,
	notifier notificationdomain.Dispatcher,
) *Scanner {
	return &Scanner{
		log:         log,
		clock:       clk,
		cfg:         cfg.withDefaults(),
		faults:      faults,
		maintenance: maintenance,
		requests:    requests,
		inventory:   inventory,
		notifier:    notifier,
		metrics:     metrics.Scanner(),
	}
}

// RunOnce executes one full scan. Per-job errors are logged and counted;
// the remaining jobs still run.
func (s *Scanner) RunOnce(ctx context.Context) {
	s.runJob(ctx, jobOverdueFaults, s.scanOverdueFaults)
	s.runJob(ctx, jobOverdueMaintenance, s.scanOverdueMaintenance)
	s.runJob(ctx, jobOverdueRequests, s.scanOverdueFridgeRequests)
	s.runJob(ctx, jobRestockCheck, s.checkRestock)
}

func (s *Scanner) runJob(ctx context.Context, job string, fn func(context.Context) error) {
	start := s.clock.Now()
	s.metrics.IncJobRun(job)
	if err := fn(ctx); err != nil {
		s.metrics.IncJobError(job, err)
		s.log.Error("scan job failed", zap.String("job", job), zap.Error(err))
	}
	s.metrics.ObserveJobDuration(job, s.clock.Now().Sub(start))
}

func (s *Scanner) scanOverdueFaults(ctx context.Context) error {
	reports, err := s.faults.Overdue(ctx, s.cfg.FaultOverdueAfter)
	if err != nil {
		return err
	}
	if len(reports) > s.cfg.BatchSize {
		reports = reports[:s.cfg.BatchSize]
	}

	now := s.clock.Now()
	for _, report := range reports {
		event := notificationdomain.FaultEscalationEvent{
			ReportID: report.ID,
			Status:   string(report.Status),
			AgeDays:  int(now.Sub(report.DateReported).Hours() / 24),
		}
		if report.EquipmentID != nil {
			event.EquipmentID = *report.EquipmentID
		}
		s.notifier.NotifyFaultEscalated(ctx, event)
	}
	s.metrics.AddBatchProcessed(jobOverdueFaults, "fault_report", len(reports))
	if len(reports) > 0 {
		s.log.Info("escalated overdue fault reports", zap.Int("count", len(reports)))
	}
	return nil
}

func (s *Scanner) scanOverdueMaintenance(ctx context.Context) error {
	records, err := s.maintenance.Overdue(ctx)
	if err != nil {
		return err
	}
	if len(records) > s.cfg.BatchSize {
		records = records[:s.cfg.BatchSize]
	}

	for _, record := range records {
		s.notifier.NotifyMaintenanceOverdue(ctx, notificationdomain.MaintenanceOverdueEvent{
			RecordID:      record.ID,
			EquipmentID:   record.EquipmentID,
			TechnicianID:  record.TechnicianID,
			ScheduledDate: record.ScheduledDate,
		})
	}
	s.metrics.AddBatchProcessed(jobOverdueMaintenance, "maintenance_record", len(records))
	if len(records) > 0 {
		s.log.Info("flagged overdue maintenance", zap.Int("count", len(records)))
	}
	return nil
}

func (s *Scanner) scanOverdueFridgeRequests(ctx context.Context) error {
	requests, err := s.requests.Overdue(ctx, s.cfg.RequestOverdueAfter)
	if err != nil {
		return err
	}
	if len(requests) > s.cfg.BatchSize {
		requests = requests[:s.cfg.BatchSize]
	}

	now := s.clock.Now()
	for _, request := range requests {
		s.notifier.NotifyFridgeRequestOverdue(ctx, notificationdomain.FridgeRequestOverdueEvent{
			RequestID:  request.ID,
			CustomerID: request.CustomerID,
			AgeDays:    int(now.Sub(request.RequestDate).Hours() / 24),
		})
	}
	s.metrics.AddBatchProcessed(jobOverdueRequests, "fridge_request", len(requests))
	if len(requests) > 0 {
		s.log.Info("flagged overdue fridge requests", zap.Int("count", len(requests)))
	}
	return nil
}

func (s *Scanner) checkRestock(ctx context.Context) error {
	created, count, err := s.inventory.CheckAndRequestRestock(ctx)
	if err != nil {
		return err
	}
	if created {
		s.log.Info("restock request created", zap.Int64("available_count", count))
	}
	return nil
}

// RunForever scans on the configured interval until the context is
// cancelled. The first scan runs immediately.
func (s *Scanner) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	s.log.Info("scanner started",
		zap.Duration("interval", s.cfg.ScanInterval),
		zap.Duration("fault_overdue_after", s.cfg.FaultOverdueAfter),
	)
	s.RunOnce(ctx)

	last := s.clock.Now()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scanner stopped")
			return
		case <-ticker.C:
			now := s.clock.Now()
			if lag := now.Sub(last) - s.cfg.ScanInterval; lag > 0 {
				s.metrics.ObserveRunLoopLag(lag)
			}
			last = now
			s.RunOnce(ctx)
		}
	}
}
