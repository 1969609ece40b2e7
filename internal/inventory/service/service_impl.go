package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/clock"
	"github.com/smallbiznis/coldchain/internal/config"
	"github.com/smallbiznis/coldchain/internal/identity"
	"github.com/smallbiznis/coldchain/internal/inventory/domain"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	"github.com/smallbiznis/coldchain/pkg/db"
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
	Config   config.Config
	Repo     domain.Repository
	Notifier notificationdomain.Dispatcher
	Metrics  *metrics.Metrics `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.Config
	repo     domain.Repository
	notifier notificationdomain.Dispatcher
	metrics  *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("inventory.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Config,
		repo:     p.Repo,
		notifier: p.Notifier,
		metrics:  p.Metrics,
	}
}

func (s *service) CheckAndRequestRestock(ctx context.Context) (bool, int64, error) {
	var (
		created bool
		count   int64
		request domain.PurchaseRequest
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		count, err = s.repo.CountAvailableEquipment(ctx, tx)
		if err != nil {
			return err
		}
		if count >= int64(s.cfg.RestockThreshold) {
			return nil
		}

		pending, err := s.repo.FindPendingAutoForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		if pending != nil {
			return nil
		}

		now := s.clock.Now()
		request = domain.PurchaseRequest{
			ID:            s.genID.Generate(),
			Quantity:      s.cfg.RestockQuantity,
			Reason:        fmt.Sprintf("Low stock: only %d fridges available", count),
			Status:        domain.StatusPending,
			EstimatedCost: s.cfg.RestockEstimatedCost,
			Priority:      domain.PriorityHigh,
			Auto:          true,
			RequestedBy:   identity.System.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, &request); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		// A concurrent check won the race on the pending-auto guard.
		if db.IsDuplicateKeyErr(err) {
			s.metrics.RecordRestockRequest("deduplicated")
			return false, count, nil
		}
		return false, 0, err
	}

	if created {
		s.metrics.RecordRestockRequest("created")
		s.notifier.NotifyPurchaseRequested(ctx, notificationdomain.PurchaseRequestedEvent{
			RequestID: request.ID,
			Quantity:  request.Quantity,
			Reason:    request.Reason,
		})
		s.notifier.NotifyLowStock(ctx, int(count))
	} else {
		s.metrics.RecordRestockRequest("skipped")
	}
	return created, count, nil
}

func (s *service) Approve(ctx context.Context, id string, actor identity.Actor) (*domain.PurchaseRequest, error) {
	return s.resolve(ctx, id, actor, domain.StatusApproved)
}

func (s *service) Reject(ctx context.Context, id string, actor identity.Actor) (*domain.PurchaseRequest, error) {
	return s.resolve(ctx, id, actor, domain.StatusRejected)
}

func (s *service) resolve(ctx context.Context, id string, actor identity.Actor, target domain.RequestStatus) (*domain.PurchaseRequest, error) {
	requestID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || requestID == 0 {
		return nil, domain.ErrInvalidID
	}

	var request *domain.PurchaseRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err = s.repo.FindByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request == nil {
			return domain.ErrNotFound
		}
		if request.Status != domain.StatusPending {
			return domain.ErrInvalidTransition
		}

		request.Status = target
		request.UpdatedAt = s.clock.Now()
		return s.repo.Save(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase request resolved",
		zap.String("request_id", requestID.String()),
		zap.String("status", string(target)),
		zap.String("actor_id", actor.ID),
	)
	s.metrics.RecordTransition("purchase_request", string(domain.StatusPending), string(target))
	return request, nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.PurchaseRequest, error) {
	requestID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || requestID == 0 {
		return nil, domain.ErrInvalidID
	}
	request, err := s.repo.FindByID(ctx, s.db, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, domain.ErrNotFound
	}
	return request, nil
}

func (s *service) List(ctx context.Context, req domain.ListRequestsRequest) (domain.ListRequestsResponse, error) {
	filter := domain.RequestFilter{}
	if req.Status != "" {
		status := domain.RequestStatus(req.Status)
		if !domain.IsValidRequestStatus(status) {
			return domain.ListRequestsResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}

	page := req.Pagination.Normalize()
	cursor, err := pagination.Decode(page.PageToken)
	if err != nil {
		return domain.ListRequestsResponse{}, domain.ErrInvalidPageToken
	}
	filter.AfterID = cursor.ID
	filter.Limit = page.PageSize + 1

	requests, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListRequestsResponse{}, err
	}

	requests, pageInfo := pagination.BuildPageInfo(requests, page.PageSize, func(r domain.PurchaseRequest) pagination.Cursor {
		return pagination.Cursor{ID: r.ID, CreatedAt: r.CreatedAt}
	})

	return domain.ListRequestsResponse{
		PageInfo: pageInfo,
		Requests: requests,
	}, nil
}

func (s *service) AvailableCount(ctx context.Context) (int64, error) {
	return s.repo.CountAvailableEquipment(ctx, s.db)
}
