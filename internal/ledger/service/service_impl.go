package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/clock"
	"github.com/smallbiznis/coldchain/internal/ledger/domain"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *service) Append(ctx context.Context, req domain.AppendRequest) error {
	return s.AppendTx(ctx, s.db, req)
}

func (s *service) AppendTx(ctx context.Context, tx *gorm.DB, req domain.AppendRequest) error {
	if req.EquipmentID == 0 {
		return domain.ErrInvalidEquipment
	}
	if !domain.IsValidAction(req.Action) {
		return domain.ErrInvalidAction
	}

	actionDate := req.ActionDate
	if actionDate.IsZero() {
		actionDate = s.clock.Now()
	}

	entry := &domain.AllocationEntry{
		ID:          s.genID.Generate(),
		EquipmentID: req.EquipmentID,
		CustomerID:  req.CustomerID,
		Action:      req.Action,
		ActorID:     strings.TrimSpace(req.ActorID),
		Note:        strings.TrimSpace(req.Note),
		ActionDate:  actionDate,
		CreatedAt:   s.clock.Now(),
	}

	if tx == nil {
		tx = s.db
	}
	if err := s.repo.Insert(ctx, tx, entry); err != nil {
		return err
	}

	s.metrics.RecordLedgerEntry(string(req.Action))
	return nil
}

func (s *service) List(ctx context.Context, req domain.ListEntriesRequest) (domain.ListEntriesResponse, error) {
	page := req.Pagination.Normalize()
	cursor, err := pagination.Decode(page.PageToken)
	if err != nil {
		return domain.ListEntriesResponse{}, domain.ErrInvalidPageToken
	}

	filter := domain.EntryFilter{
		AfterActionDate: cursor.CreatedAt,
		AfterID:         cursor.ID,
		Limit:           page.PageSize + 1,
	}
	if raw := strings.TrimSpace(req.EquipmentID); raw != "" {
		equipmentID, err := snowflake.ParseString(raw)
		if err != nil || equipmentID == 0 {
			return domain.ListEntriesResponse{}, domain.ErrInvalidEquipment
		}
		filter.EquipmentID = equipmentID
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil || customerID == 0 {
			return domain.ListEntriesResponse{}, domain.ErrInvalidCustomer
		}
		filter.CustomerID = customerID
	}
	if raw := strings.TrimSpace(req.Action); raw != "" {
		action := domain.AllocationAction(strings.ToLower(raw))
		if !domain.IsValidAction(action) {
			return domain.ListEntriesResponse{}, domain.ErrInvalidAction
		}
		filter.Action = action
	}

	entries, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListEntriesResponse{}, err
	}

	// The cursor carries the sort key: resume after (action_date, id).
	entries, pageInfo := pagination.BuildPageInfo(entries, page.PageSize, func(e domain.AllocationEntry) pagination.Cursor {
		return pagination.Cursor{ID: e.ID, CreatedAt: e.ActionDate}
	})

	return domain.ListEntriesResponse{
		PageInfo: pageInfo,
		Entries:  entries,
	}, nil
}

func (s *service) ListByEquipment(ctx context.Context, equipmentID string) ([]domain.AllocationEntry, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(equipmentID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidEquipment
	}
	return s.repo.List(ctx, s.db, domain.EntryFilter{EquipmentID: id})
}

func (s *service) ListByCustomer(ctx context.Context, customerID string) ([]domain.AllocationEntry, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(customerID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	return s.repo.List(ctx, s.db, domain.EntryFilter{CustomerID: id})
}
