package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/authorization"
	"github.com/smallbiznis/coldchain/internal/clock"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	"github.com/smallbiznis/coldchain/internal/faultreport/domain"
	"github.com/smallbiznis/coldchain/internal/identity"
	identitydomain "github.com/smallbiznis/coldchain/internal/identity/domain"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	referencedomain "github.com/smallbiznis/coldchain/internal/reference/domain"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minDescriptionLen = 10
	maxDescriptionLen = 1000
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Equipment equipmentdomain.Repository
	Reference referencedomain.Repository
	Identity  identitydomain.Repository
	Notifier  notificationdomain.Dispatcher
	Metrics   *metrics.Metrics `optional:"true"`
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	equipment equipmentdomain.Repository
	reference referencedomain.Repository
	identity  identitydomain.Repository
	notifier  notificationdomain.Dispatcher
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("faultreport.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		equipment: p.Equipment,
		reference: p.Reference,
		identity:  p.Identity,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
	}
}

func isTransitionAllowed(current, target domain.Status) bool {
	switch current {
	case domain.StatusReported:
		return target == domain.StatusDiagnosed
	case domain.StatusDiagnosed:
		return target == domain.StatusScheduled || target == domain.StatusInProgress
	case domain.StatusScheduled:
		return target == domain.StatusInProgress
	case domain.StatusInProgress:
		return target == domain.StatusResolved
	case domain.StatusResolved:
		return target == domain.StatusClosed
	default:
		return false
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// canActOn gates record-level mutations to the assigned technician or an
// administrator.
func canActOn(report *domain.FaultReport, actor identity.Actor) error {
	if actor.Role == identity.RoleAdministrator || actor.Role == identity.RoleSystem {
		return nil
	}
	if report.TechnicianID != nil {
		if actorID, err := snowflake.ParseString(strings.TrimSpace(actor.ID)); err == nil && actorID == *report.TechnicianID {
			return nil
		}
	}
	return authorization.ErrForbidden
}

func (s *service) Report(ctx context.Context, req domain.ReportRequest) (*domain.FaultReport, error) {
	description := strings.TrimSpace(req.Description)
	if len(description) < minDescriptionLen || len(description) > maxDescriptionLen {
		return nil, domain.ErrDescriptionLength
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return nil, domain.ErrCustomerNotFound
	}

	var equipmentID *snowflake.ID
	if strings.TrimSpace(req.EquipmentID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(req.EquipmentID))
		if err != nil || parsed == 0 {
			return nil, domain.ErrEquipmentNotFound
		}
		equipmentID = &parsed
	}

	now := s.clock.Now()
	report := &domain.FaultReport{
		ID:                 s.genID.Generate(),
		EquipmentID:        equipmentID,
		CustomerID:         customerID,
		Status:             domain.StatusReported,
		Description:        description,
		InternalNotes:      strings.TrimSpace(req.Notes),
		RequestReplacement: req.RequestReplacement,
		DateReported:       now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.reference.CustomerExists(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrCustomerNotFound
		}

		if equipmentID != nil {
			unit, err := s.equipment.FindByIDForUpdate(ctx, tx, *equipmentID)
			if err != nil {
				return err
			}
			if unit == nil {
				return domain.ErrEquipmentNotFound
			}

			active, err := s.repo.FindActiveByEquipment(ctx, tx, *equipmentID)
			if err != nil {
				return err
			}
			if active != nil {
				return domain.ErrDuplicateActiveReport
			}

			if unit.Status != equipmentdomain.StatusFaulty && unit.Status != equipmentdomain.StatusScrapped {
				previous := unit.Status
				unit.Status = equipmentdomain.StatusFaulty
				unit.UpdatedAt = now
				if err := s.equipment.Save(ctx, tx, unit); err != nil {
					return err
				}
				s.metrics.RecordTransition("equipment", string(previous), string(equipmentdomain.StatusFaulty))
			}
		}

		return s.repo.Insert(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}

	event := notificationdomain.FaultReportedEvent{
		ReportID:           report.ID,
		CustomerID:         customerID,
		Description:        description,
		RequestReplacement: req.RequestReplacement,
	}
	if equipmentID != nil {
		event.EquipmentID = *equipmentID
	}
	s.notifier.NotifyFaultReported(ctx, event)
	return report, nil
}

func (s *service) AssignTechnician(ctx context.Context, reportID, technicianID string, actor identity.Actor) (*domain.FaultReport, error) {
	id, err := parseID(reportID)
	if err != nil {
		return nil, err
	}
	techID, err := snowflake.ParseString(strings.TrimSpace(technicianID))
	if err != nil || techID == 0 {
		return nil, domain.ErrTechnicianNotFound
	}

	var report *domain.FaultReport
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		technician, err := s.identity.FindByID(ctx, tx, techID)
		if err != nil {
			return err
		}
		if technician == nil || !technician.Active {
			return domain.ErrTechnicianNotFound
		}

		report, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if report == nil {
			return domain.ErrNotFound
		}
		if report.Status != domain.StatusReported && report.Status != domain.StatusDiagnosed {
			return domain.ErrInvalidTransition
		}

		report.TechnicianID = &techID
		if report.Status == domain.StatusReported {
			report.Status = domain.StatusDiagnosed
			s.metrics.RecordTransition("fault_report", string(domain.StatusReported), string(domain.StatusDiagnosed))
		}
		report.UpdatedAt = s.clock.Now()
		return s.repo.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) Diagnose(ctx context.Context, req domain.DiagnoseRequest) (*domain.FaultReport, error) {
	id, err := parseID(req.ReportID)
	if err != nil {
		return nil, err
	}
	if req.ScheduledDate != nil && req.ScheduledDate.Before(s.clock.Now()) {
		return nil, domain.ErrPastScheduledDate
	}

	var report *domain.FaultReport
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if report == nil {
			return domain.ErrNotFound
		}
		if err := canActOn(report, req.Actor); err != nil {
			return err
		}
		if report.Status != domain.StatusReported && report.Status != domain.StatusDiagnosed {
			return domain.ErrInvalidTransition
		}

		previous := report.Status
		report.Diagnosis = strings.TrimSpace(req.Diagnosis)
		report.PartsRequired = strings.TrimSpace(req.PartsRequired)
		report.EstimatedCost = req.EstimatedCost
		if notes := strings.TrimSpace(req.InternalNotes); notes != "" {
			report.InternalNotes = notes
		}
		if req.ScheduledDate != nil {
			report.ScheduledDate = req.ScheduledDate
			report.Status = domain.StatusScheduled
		} else {
			report.Status = domain.StatusDiagnosed
		}
		report.UpdatedAt = s.clock.Now()
		if report.Status != previous {
			s.metrics.RecordTransition("fault_report", string(previous), string(report.Status))
		}
		return s.repo.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) ScheduleRepair(ctx context.Context, reportID string, actor identity.Actor, scheduledDate time.Time) (*domain.FaultReport, error) {
	id, err := parseID(reportID)
	if err != nil {
		return nil, err
	}
	if scheduledDate.Before(s.clock.Now()) {
		return nil, domain.ErrPastScheduledDate
	}

	var report *domain.FaultReport
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if report == nil {
			return domain.ErrNotFound
		}
		if err := canActOn(report, actor); err != nil {
			return err
		}
		if report.Status != domain.StatusDiagnosed && report.Status != domain.StatusScheduled {
			return domain.ErrInvalidTransition
		}

		previous := report.Status
		report.ScheduledDate = &scheduledDate
		report.Status = domain.StatusScheduled
		report.UpdatedAt = s.clock.Now()
		if report.Status != previous {
			s.metrics.RecordTransition("fault_report", string(previous), string(report.Status))
		}
		return s.repo.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) StartRepair(ctx context.Context, reportID string, actor identity.Actor) (*domain.FaultReport, error) {
	id, err := parseID(reportID)
	if err != nil {
		return nil, err
	}

	var report *domain.FaultReport
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if report == nil {
			return domain.ErrNotFound
		}
		if err := canActOn(report, actor); err != nil {
			return err
		}
		if !isTransitionAllowed(report.Status, domain.StatusInProgress) {
			return domain.ErrInvalidTransition
		}

		previous := report.Status
		report.Status = domain.StatusInProgress
		report.UpdatedAt = s.clock.Now()
		s.metrics.RecordTransition("fault_report", string(previous), string(domain.StatusInProgress))
		return s.repo.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) CompleteRepair(ctx context.Context, reportID string, actor identity.Actor, repairNotes string) (*domain.FaultReport, error) {
	id, err := parseID(reportID)
	if err != nil {
		return nil, err
	}

	var report *domain.FaultReport
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if report == nil {
			return domain.ErrNotFound
		}
		if err := canActOn(report, actor); err != nil {
			return err
		}
		if !isTransitionAllowed(report.Status, domain.StatusResolved) {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		report.Status = domain.StatusResolved
		report.RepairNotes = strings.TrimSpace(repairNotes)
		report.RepairDate = &now
		report.UpdatedAt = now
		if err := s.repo.Save(ctx, tx, report); err != nil {
			return err
		}
		s.metrics.RecordTransition("fault_report", string(domain.StatusInProgress), string(domain.StatusResolved))

		if report.EquipmentID == nil {
			return nil
		}
		unit, err := s.equipment.FindByIDForUpdate(ctx, tx, *report.EquipmentID)
		if err != nil {
			return err
		}
		if unit == nil || unit.Status != equipmentdomain.StatusFaulty {
			return nil
		}
		// The unit goes back to whoever had it when the fault came in.
		target := equipmentdomain.StatusAvailable
		if unit.CustomerID != nil {
			target = equipmentdomain.StatusAllocated
		}
		unit.Status = target
		unit.UpdatedAt = now
		if err := s.equipment.Save(ctx, tx, unit); err != nil {
			return err
		}
		s.metrics.RecordTransition("equipment", string(equipmentdomain.StatusFaulty), string(target))
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := notificationdomain.RepairCompletedEvent{
		ReportID:   report.ID,
		CustomerID: report.CustomerID,
	}
	if report.EquipmentID != nil {
		event.EquipmentID = *report.EquipmentID
	}
	s.notifier.NotifyRepairCompleted(ctx, event)
	return report, nil
}

func (s *service) Close(ctx context.Context, reportID string, actor identity.Actor) (*domain.FaultReport, error) {
	id, err := parseID(reportID)
	if err != nil {
		return nil, err
	}

	var report *domain.FaultReport
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if report == nil {
			return domain.ErrNotFound
		}
		if !isTransitionAllowed(report.Status, domain.StatusClosed) {
			return domain.ErrInvalidTransition
		}

		report.Status = domain.StatusClosed
		report.UpdatedAt = s.clock.Now()
		s.metrics.RecordTransition("fault_report", string(domain.StatusResolved), string(domain.StatusClosed))
		return s.repo.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) ApproveReplacement(ctx context.Context, reportID string, actor identity.Actor) (*domain.FaultReport, error) {
	if actor.Role != identity.RoleAdministrator {
		return nil, authorization.ErrForbidden
	}
	id, err := parseID(reportID)
	if err != nil {
		return nil, err
	}

	var report *domain.FaultReport
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if report == nil {
			return domain.ErrNotFound
		}
		if report.Status.IsTerminal() {
			return domain.ErrInvalidTransition
		}

		report.ReplacementApproved = true
		report.UpdatedAt = s.clock.Now()
		return s.repo.Save(ctx, tx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.ReportView, error) {
	reportID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	report, err := s.repo.FindByID(ctx, s.db, reportID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.ReportView{
		FaultReport: *report,
		Priority:    report.Priority(s.clock.Now()),
	}, nil
}

func (s *service) List(ctx context.Context, req domain.ListReportsRequest) (domain.ListReportsResponse, error) {
	filter := domain.ReportFilter{}
	if req.Status != "" {
		status := domain.Status(req.Status)
		if !domain.IsValidStatus(status) {
			return domain.ListReportsResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.EquipmentID != "" {
		equipmentID, err := snowflake.ParseString(strings.TrimSpace(req.EquipmentID))
		if err != nil || equipmentID == 0 {
			return domain.ListReportsResponse{}, domain.ErrEquipmentNotFound
		}
		filter.EquipmentID = equipmentID
	}
	if req.CustomerID != "" {
		customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
		if err != nil || customerID == 0 {
			return domain.ListReportsResponse{}, domain.ErrCustomerNotFound
		}
		filter.CustomerID = customerID
	}

	page := req.Pagination.Normalize()
	cursor, err := pagination.Decode(page.PageToken)
	if err != nil {
		return domain.ListReportsResponse{}, domain.ErrInvalidPageToken
	}
	filter.AfterID = cursor.ID
	filter.Limit = page.PageSize + 1

	reports, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListReportsResponse{}, err
	}

	reports, pageInfo := pagination.BuildPageInfo(reports, page.PageSize, func(r domain.FaultReport) pagination.Cursor {
		return pagination.Cursor{ID: r.ID, CreatedAt: r.CreatedAt}
	})

	now := s.clock.Now()
	views := make([]domain.ReportView, 0, len(reports))
	for _, report := range reports {
		views = append(views, domain.ReportView{
			FaultReport: report,
			Priority:    report.Priority(now),
		})
	}

	return domain.ListReportsResponse{
		PageInfo: pageInfo,
		Reports:  views,
	}, nil
}

func (s *service) Overdue(ctx context.Context, olderThan time.Duration) ([]domain.FaultReport, error) {
	cutoff := s.clock.Now().Add(-olderThan)
	return s.repo.ListOverdue(ctx, s.db, cutoff, 0)
}
