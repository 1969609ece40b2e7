package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/clock"
	"github.com/smallbiznis/coldchain/internal/equipment/domain"
	inventorydomain "github.com/smallbiznis/coldchain/internal/inventory/domain"
	ledgerdomain "github.com/smallbiznis/coldchain/internal/ledger/domain"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	referencedomain "github.com/smallbiznis/coldchain/internal/reference/domain"
	"github.com/smallbiznis/coldchain/pkg/db"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minScrapReasonLen = 5

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Reference referencedomain.Repository
	Ledger    ledgerdomain.Service
	Inventory inventorydomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	reference referencedomain.Repository
	ledger    ledgerdomain.Service
	inventory inventorydomain.Service
	metrics   *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("equipment.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		reference: p.Reference,
		ledger:    p.Ledger,
		inventory: p.Inventory,
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

func (s *service) Allocate(ctx context.Context, req domain.AllocateRequest) (*domain.Equipment, error) {
	equipmentID, err := parseID(req.EquipmentID)
	if err != nil {
		return nil, err
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return nil, domain.ErrCustomerNotFound
	}

	var equipment *domain.Equipment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		equipment, err = s.repo.FindByIDForUpdate(ctx, tx, equipmentID)
		if err != nil {
			return err
		}
		if equipment == nil {
			return domain.ErrNotFound
		}
		if equipment.Status != domain.StatusAvailable {
			return domain.ErrInvalidTransition
		}

		exists, err := s.reference.CustomerExists(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrCustomerNotFound
		}

		equipment.Status = domain.StatusAllocated
		equipment.CustomerID = &customerID
		equipment.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, equipment); err != nil {
			return err
		}

		return s.ledger.AppendTx(ctx, tx, ledgerdomain.AppendRequest{
			EquipmentID: equipmentID,
			CustomerID:  &customerID,
			Action:      ledgerdomain.ActionAllocated,
			ActorID:     req.Actor.ID,
			Note:        req.Notes,
			ActionDate:  s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition("equipment", string(domain.StatusAvailable), string(domain.StatusAllocated))
	s.checkRestock(ctx)
	return equipment, nil
}

func (s *service) Deallocate(ctx context.Context, req domain.DeallocateRequest) (*domain.Equipment, error) {
	equipmentID, err := parseID(req.EquipmentID)
	if err != nil {
		return nil, err
	}

	var equipment *domain.Equipment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		equipment, err = s.repo.FindByIDForUpdate(ctx, tx, equipmentID)
		if err != nil {
			return err
		}
		if equipment == nil {
			return domain.ErrNotFound
		}
		if equipment.Status != domain.StatusAllocated {
			return domain.ErrInvalidTransition
		}

		previousCustomer := equipment.CustomerID
		equipment.Status = domain.StatusAvailable
		equipment.CustomerID = nil
		equipment.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, equipment); err != nil {
			return err
		}

		return s.ledger.AppendTx(ctx, tx, ledgerdomain.AppendRequest{
			EquipmentID: equipmentID,
			CustomerID:  previousCustomer,
			Action:      ledgerdomain.ActionDeallocated,
			ActorID:     req.Actor.ID,
			Note:        req.Notes,
			ActionDate:  s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition("equipment", string(domain.StatusAllocated), string(domain.StatusAvailable))
	return equipment, nil
}

func (s *service) Scrap(ctx context.Context, req domain.ScrapRequest) (*domain.Equipment, error) {
	equipmentID, err := parseID(req.EquipmentID)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if len(reason) < minScrapReasonLen {
		return nil, domain.ErrReasonTooShort
	}

	var equipment *domain.Equipment
	var previousStatus domain.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		equipment, err = s.repo.FindByIDForUpdate(ctx, tx, equipmentID)
		if err != nil {
			return err
		}
		if equipment == nil {
			return domain.ErrNotFound
		}
		if equipment.Status == domain.StatusAllocated || equipment.Status == domain.StatusScrapped {
			return domain.ErrInvalidTransition
		}

		previousStatus = equipment.Status
		previousCustomer := equipment.CustomerID
		equipment.Status = domain.StatusScrapped
		equipment.CustomerID = nil
		equipment.ScrapReason = reason
		equipment.UpdatedAt = s.clock.Now()
		if err := s.repo.Save(ctx, tx, equipment); err != nil {
			return err
		}

		return s.ledger.AppendTx(ctx, tx, ledgerdomain.AppendRequest{
			EquipmentID: equipmentID,
			CustomerID:  previousCustomer,
			Action:      ledgerdomain.ActionScrapped,
			ActorID:     req.Actor.ID,
			Note:        reason,
			ActionDate:  s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition("equipment", string(previousStatus), string(domain.StatusScrapped))
	s.checkRestock(ctx)
	return equipment, nil
}

func (s *service) ReceiveBatch(ctx context.Context, req domain.ReceiveBatchRequest) (domain.ReceiveBatchResponse, error) {
	var resp domain.ReceiveBatchResponse
	if req.Quantity <= 0 || req.Quantity > 100 {
		return resp, domain.ErrInvalidQuantity
	}
	model := strings.TrimSpace(req.Model)
	prefix := strings.TrimSpace(req.SerialPrefix)
	if model == "" || prefix == "" {
		return resp, domain.ErrInvalidQuantity
	}
	supplierID, err := snowflake.ParseString(strings.TrimSpace(req.SupplierID))
	if err != nil || supplierID == 0 {
		return resp, domain.ErrSupplierNotFound
	}

	exists, err := s.reference.SupplierExists(ctx, s.db, supplierID)
	if err != nil {
		return resp, err
	}
	if !exists {
		return resp, domain.ErrSupplierNotFound
	}

	now := s.clock.Now()
	for i := 1; i <= req.Quantity; i++ {
		serial := fmt.Sprintf("%s-%03d", prefix, i)
		unit := domain.Equipment{
			ID:           s.genID.Generate(),
			Model:        model,
			SerialNumber: serial,
			Status:       domain.StatusAvailable,
			SupplierID:   &supplierID,
			PurchaseDate: &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		// Each unit commits on its own so one duplicate serial cannot
		// roll back the rest of the batch.
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.Create(ctx, tx, &unit); err != nil {
				return err
			}
			return s.ledger.AppendTx(ctx, tx, ledgerdomain.AppendRequest{
				EquipmentID: unit.ID,
				Action:      ledgerdomain.ActionReceived,
				ActorID:     req.Actor.ID,
				Note:        "received from supplier " + supplierID.String(),
				ActionDate:  now,
			})
		})
		if err != nil {
			if db.IsDuplicateKeyErr(err) {
				s.log.Warn("serial already exists, skipping unit",
					zap.String("serial_number", serial),
					zap.String("model", model),
				)
				resp.SkippedSerials = append(resp.SkippedSerials, serial)
				continue
			}
			return domain.ReceiveBatchResponse{}, err
		}
		resp.Created = append(resp.Created, unit)
	}

	if len(resp.Created) == 0 {
		return domain.ReceiveBatchResponse{}, domain.ErrSerialExists
	}
	return resp, nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.Equipment, error) {
	equipmentID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	equipment, err := s.repo.FindByID(ctx, s.db, equipmentID)
	if err != nil {
		return nil, err
	}
	if equipment == nil {
		return nil, domain.ErrNotFound
	}
	return equipment, nil
}

func (s *service) List(ctx context.Context, req domain.ListEquipmentRequest) (domain.ListEquipmentResponse, error) {
	filter := domain.EquipmentFilter{}
	if req.Status != "" {
		status := domain.Status(req.Status)
		if !domain.IsValidStatus(status) {
			return domain.ListEquipmentResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.CustomerID != "" {
		customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
		if err != nil || customerID == 0 {
			return domain.ListEquipmentResponse{}, domain.ErrCustomerNotFound
		}
		filter.CustomerID = customerID
	}

	page := req.Pagination.Normalize()
	cursor, err := pagination.Decode(page.PageToken)
	if err != nil {
		return domain.ListEquipmentResponse{}, domain.ErrInvalidPageToken
	}
	filter.AfterID = cursor.ID
	filter.Limit = page.PageSize + 1

	equipment, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListEquipmentResponse{}, err
	}

	equipment, pageInfo := pagination.BuildPageInfo(equipment, page.PageSize, func(e domain.Equipment) pagination.Cursor {
		return pagination.Cursor{ID: e.ID, CreatedAt: e.CreatedAt}
	})

	return domain.ListEquipmentResponse{
		PageInfo:  pageInfo,
		Equipment: equipment,
	}, nil
}

// checkRestock runs after a commit that reduced the available pool. The
// inventory service serializes the check; failures only log.
func (s *service) checkRestock(ctx context.Context) {
	created, count, err := s.inventory.CheckAndRequestRestock(ctx)
	if err != nil {
		s.log.Warn("restock check failed", zap.Error(err))
		return
	}
	s.metrics.SetAvailableUnits(int(count))
	if created {
		s.log.Info("restock request created", zap.Int64("available_count", count))
	}
}
