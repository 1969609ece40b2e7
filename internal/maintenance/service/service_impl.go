package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/authorization"
	"github.com/smallbiznis/coldchain/internal/clock"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	"github.com/smallbiznis/coldchain/internal/identity"
	identitydomain "github.com/smallbiznis/coldchain/internal/identity/domain"
	"github.com/smallbiznis/coldchain/internal/maintenance/domain"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minCancelReasonLen = 5
	bookingWindow      = 2 * time.Hour
	defaultType        = "routine"
	nextServiceMonths  = 6
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Equipment equipmentdomain.Repository
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
	identity  identitydomain.Repository
	notifier  notificationdomain.Dispatcher
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("maintenance.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		equipment: p.Equipment,
		identity:  p.Identity,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func canActOn(record *domain.MaintenanceRecord, actor identity.Actor) error {
	if actor.Role == identity.RoleAdministrator || actor.Role == identity.RoleSystem {
		return nil
	}
	if actorID, err := snowflake.ParseString(strings.TrimSpace(actor.ID)); err == nil && actorID == record.TechnicianID {
		return nil
	}
	return authorization.ErrForbidden
}

func (s *service) Schedule(ctx context.Context, req domain.ScheduleRequest) (*domain.MaintenanceRecord, error) {
	equipmentID, err := parseID(req.EquipmentID)
	if err != nil {
		return nil, domain.ErrEquipmentNotFound
	}
	technicianID, err := snowflake.ParseString(strings.TrimSpace(req.TechnicianID))
	if err != nil || technicianID == 0 {
		return nil, domain.ErrTechnicianNotFound
	}
	if req.ScheduledDate.Before(s.clock.Now()) {
		return nil, domain.ErrPastScheduledDate
	}
	mtype := strings.TrimSpace(req.MaintenanceType)
	if mtype == "" {
		mtype = defaultType
	}

	now := s.clock.Now()
	record := &domain.MaintenanceRecord{
		ID:               s.genID.Generate(),
		EquipmentID:      equipmentID,
		TechnicianID:     technicianID,
		Status:           domain.StatusScheduled,
		MaintenanceType:  mtype,
		ScheduledDate:    req.ScheduledDate,
		TechnicianNotes:  strings.TrimSpace(req.Notes),
		ServiceChecklist: strings.TrimSpace(req.Checklist),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var customerID *snowflake.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		technician, err := s.identity.FindByID(ctx, tx, technicianID)
		if err != nil {
			return err
		}
		if technician == nil || !technician.Active {
			return domain.ErrTechnicianNotFound
		}

		conflicts, err := s.repo.CountTechnicianConflicts(ctx, tx, technicianID,
			req.ScheduledDate.Add(-bookingWindow), req.ScheduledDate.Add(bookingWindow), 0)
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return domain.ErrTechnicianBooked
		}

		unit, err := s.equipment.FindByIDForUpdate(ctx, tx, equipmentID)
		if err != nil {
			return err
		}
		if unit == nil {
			return domain.ErrEquipmentNotFound
		}
		if unit.Status == equipmentdomain.StatusScrapped {
			return domain.ErrEquipmentScrapped
		}
		customerID = unit.CustomerID

		if unit.Status != equipmentdomain.StatusUnderMaintenance {
			previous := unit.Status
			unit.Status = equipmentdomain.StatusUnderMaintenance
			unit.UpdatedAt = now
			if err := s.equipment.Save(ctx, tx, unit); err != nil {
				return err
			}
			s.metrics.RecordTransition("equipment", string(previous), string(equipmentdomain.StatusUnderMaintenance))
		}

		return s.repo.Insert(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyMaintenanceScheduled(ctx, notificationdomain.MaintenanceScheduledEvent{
		RecordID:        record.ID,
		EquipmentID:     equipmentID,
		TechnicianID:    technicianID,
		CustomerID:      customerID,
		MaintenanceType: mtype,
		ScheduledDate:   req.ScheduledDate,
	})
	return record, nil
}

func (s *service) Start(ctx context.Context, recordID string, actor identity.Actor) (*domain.MaintenanceRecord, error) {
	id, err := parseID(recordID)
	if err != nil {
		return nil, err
	}

	var record *domain.MaintenanceRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if err := canActOn(record, actor); err != nil {
			return err
		}
		if record.Status != domain.StatusScheduled {
			return domain.ErrInvalidTransition
		}

		record.Status = domain.StatusInProgress
		record.UpdatedAt = s.clock.Now()
		s.metrics.RecordTransition("maintenance", string(domain.StatusScheduled), string(domain.StatusInProgress))
		return s.repo.Save(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Complete(ctx context.Context, req domain.CompleteRequest) (*domain.MaintenanceRecord, error) {
	id, err := parseID(req.RecordID)
	if err != nil {
		return nil, err
	}

	var record *domain.MaintenanceRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if err := canActOn(record, req.Actor); err != nil {
			return err
		}
		if record.Status != domain.StatusInProgress {
			return domain.ErrInvalidTransition
		}

		performed := s.clock.Now()
		if req.PerformedDate != nil {
			performed = *req.PerformedDate
		}
		record.Status = domain.StatusCompleted
		record.PerformedDate = &performed
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			record.TechnicianNotes = notes
		}
		if checklist := strings.TrimSpace(req.Checklist); checklist != "" {
			record.ServiceChecklist = checklist
		}
		record.PartsUsed = strings.TrimSpace(req.PartsUsed)
		record.TotalCost = req.TotalCost
		record.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, record); err != nil {
			return err
		}
		s.metrics.RecordTransition("maintenance", string(domain.StatusInProgress), string(domain.StatusCompleted))

		unit, err := s.equipment.FindByIDForUpdate(ctx, tx, record.EquipmentID)
		if err != nil {
			return err
		}
		if unit != nil {
			if unit.Status == equipmentdomain.StatusUnderMaintenance {
				// Hand the unit back to whoever had it.
				target := equipmentdomain.StatusAvailable
				if unit.CustomerID != nil {
					target = equipmentdomain.StatusAllocated
				}
				unit.Status = target
				s.metrics.RecordTransition("equipment", string(equipmentdomain.StatusUnderMaintenance), string(target))
			}
			unit.LastMaintenanceDate = &performed
			next := performed.AddDate(0, nextServiceMonths, 0)
			unit.NextMaintenanceDate = &next
			unit.UpdatedAt = s.clock.Now()
			if err := s.equipment.Save(ctx, tx, unit); err != nil {
				return err
			}
		}

		return s.repo.InsertHistory(ctx, tx, &domain.ServiceHistoryEntry{
			ID:           s.genID.Generate(),
			EquipmentID:  record.EquipmentID,
			TechnicianID: record.TechnicianID,
			ServiceDate:  performed,
			ServiceType:  domain.ServiceTypeMaintenance,
			Description:  record.MaintenanceType,
			Cost:         record.TotalCost,
			CreatedAt:    s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Cancel(ctx context.Context, recordID string, actor identity.Actor, reason string) (*domain.MaintenanceRecord, error) {
	id, err := parseID(recordID)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if len(reason) < minCancelReasonLen {
		return nil, domain.ErrReasonTooShort
	}

	var record *domain.MaintenanceRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if err := canActOn(record, actor); err != nil {
			return err
		}
		if record.Status != domain.StatusScheduled {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		record.Status = domain.StatusCancelled
		note := fmt.Sprintf("[cancelled %s] %s", now.Format(time.RFC3339), reason)
		if record.TechnicianNotes != "" {
			record.TechnicianNotes += "\n" + note
		} else {
			record.TechnicianNotes = note
		}
		record.UpdatedAt = now
		if err := s.repo.Save(ctx, tx, record); err != nil {
			return err
		}
		s.metrics.RecordTransition("maintenance", string(domain.StatusScheduled), string(domain.StatusCancelled))

		unit, err := s.equipment.FindByIDForUpdate(ctx, tx, record.EquipmentID)
		if err != nil {
			return err
		}
		if unit == nil || unit.Status != equipmentdomain.StatusUnderMaintenance {
			return nil
		}
		target := equipmentdomain.StatusAvailable
		if unit.CustomerID != nil {
			target = equipmentdomain.StatusAllocated
		}
		unit.Status = target
		unit.UpdatedAt = now
		if err := s.equipment.Save(ctx, tx, unit); err != nil {
			return err
		}
		s.metrics.RecordTransition("equipment", string(equipmentdomain.StatusUnderMaintenance), string(target))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.MaintenanceRecord, error) {
	recordID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindByID(ctx, s.db, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *service) List(ctx context.Context, req domain.ListRecordsRequest) (domain.ListRecordsResponse, error) {
	filter := domain.RecordFilter{}
	if req.Status != "" {
		status := domain.Status(req.Status)
		if !domain.IsValidStatus(status) {
			return domain.ListRecordsResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.EquipmentID != "" {
		equipmentID, err := snowflake.ParseString(strings.TrimSpace(req.EquipmentID))
		if err != nil || equipmentID == 0 {
			return domain.ListRecordsResponse{}, domain.ErrEquipmentNotFound
		}
		filter.EquipmentID = equipmentID
	}
	if req.TechnicianID != "" {
		technicianID, err := snowflake.ParseString(strings.TrimSpace(req.TechnicianID))
		if err != nil || technicianID == 0 {
			return domain.ListRecordsResponse{}, domain.ErrTechnicianNotFound
		}
		filter.TechnicianID = technicianID
	}
	if req.From != "" {
		from, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			return domain.ListRecordsResponse{}, domain.ErrInvalidDateRange
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			return domain.ListRecordsResponse{}, domain.ErrInvalidDateRange
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return domain.ListRecordsResponse{}, domain.ErrInvalidDateRange
	}

	page := req.Pagination.Normalize()
	cursor, err := pagination.Decode(page.PageToken)
	if err != nil {
		return domain.ListRecordsResponse{}, domain.ErrInvalidPageToken
	}
	filter.AfterID = cursor.ID
	filter.Limit = page.PageSize + 1

	records, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListRecordsResponse{}, err
	}

	records, pageInfo := pagination.BuildPageInfo(records, page.PageSize, func(r domain.MaintenanceRecord) pagination.Cursor {
		return pagination.Cursor{ID: r.ID, CreatedAt: r.CreatedAt}
	})

	return domain.ListRecordsResponse{
		PageInfo: pageInfo,
		Records:  records,
	}, nil
}

func (s *service) Overdue(ctx context.Context) ([]domain.MaintenanceRecord, error) {
	return s.repo.ListOverdue(ctx, s.db, s.clock.Now(), 0)
}

func (s *service) History(ctx context.Context, equipmentID string) ([]domain.ServiceHistoryEntry, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(equipmentID))
	if err != nil || id == 0 {
		return nil, domain.ErrEquipmentNotFound
	}
	return s.repo.ListHistory(ctx, s.db, id)
}
