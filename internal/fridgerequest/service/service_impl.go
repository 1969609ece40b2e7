package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/clock"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	"github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
	"github.com/smallbiznis/coldchain/internal/identity"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/internal/observability/metrics"
	referencedomain "github.com/smallbiznis/coldchain/internal/reference/domain"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minJustificationLen = 10
	maxJustificationLen = 1000
	maxRequestQuantity  = 50

	// A customer with a pending request inside this window cannot raise
	// another one.
	duplicateWindow = 30 * 24 * time.Hour
)

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	Equipment     equipmentdomain.Service
	EquipmentRepo equipmentdomain.Repository
	Reference     referencedomain.Repository
	Notifier      notificationdomain.Dispatcher
	Metrics       *metrics.Metrics `optional:"true"`
}

type service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	equipment     equipmentdomain.Service
	equipmentRepo equipmentdomain.Repository
	reference     referencedomain.Repository
	notifier      notificationdomain.Dispatcher
	metrics       *metrics.Metrics
}

func NewService(p ServiceParam) domain.Service {
	return &service{
		db:            p.DB,
		log:           p.Log.Named("fridgerequest.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		equipment:     p.Equipment,
		equipmentRepo: p.EquipmentRepo,
		reference:     p.Reference,
		notifier:      p.Notifier,
		metrics:       p.Metrics,
	}
}

func isTransitionAllowed(current, target domain.Status) bool {
	switch current {
	case domain.StatusPending:
		return target == domain.StatusUnderReview ||
			target == domain.StatusApproved ||
			target == domain.StatusRejected
	case domain.StatusUnderReview:
		return target == domain.StatusApproved || target == domain.StatusRejected
	case domain.StatusApproved:
		return target == domain.StatusAllocated
	case domain.StatusAllocated:
		return target == domain.StatusCompleted
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

func (s *service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.FridgeRequest, error) {
	if req.Quantity < 1 || req.Quantity > maxRequestQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	justification := strings.TrimSpace(req.Justification)
	if len(justification) < minJustificationLen || len(justification) > maxJustificationLen {
		return nil, domain.ErrJustificationLength
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return nil, domain.ErrCustomerNotFound
	}

	now := s.clock.Now()
	request := &domain.FridgeRequest{
		ID:              s.genID.Generate(),
		CustomerID:      customerID,
		RequestedBy:     strings.TrimSpace(req.Actor.ID),
		Quantity:        req.Quantity,
		Justification:   justification,
		AdditionalNotes: strings.TrimSpace(req.AdditionalNotes),
		Status:          domain.StatusPending,
		RequestDate:     now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.reference.CustomerExists(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrCustomerNotFound
		}

		pending, err := s.repo.FindPendingByCustomer(ctx, tx, customerID, now.Add(-duplicateWindow))
		if err != nil {
			return err
		}
		if pending != nil {
			return domain.ErrDuplicatePending
		}

		return s.repo.Insert(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyFridgeRequestSubmitted(ctx, notificationdomain.FridgeRequestSubmittedEvent{
		RequestID:  request.ID,
		CustomerID: customerID,
		Quantity:   req.Quantity,
	})
	return request, nil
}

func (s *service) Review(ctx context.Context, id string, actor identity.Actor) (*domain.FridgeRequest, error) {
	return s.transition(ctx, id, actor, domain.StatusUnderReview, func(request *domain.FridgeRequest) {})
}

func (s *service) Approve(ctx context.Context, req domain.ApproveRequest) (*domain.FridgeRequest, error) {
	return s.transition(ctx, req.RequestID, req.Actor, domain.StatusApproved, func(request *domain.FridgeRequest) {
		approved := req.ApprovedQuantity
		if approved <= 0 {
			approved = request.Quantity
		}
		now := s.clock.Now()
		request.ApprovedQuantity = &approved
		request.ApprovedBy = strings.TrimSpace(req.Actor.ID)
		request.ApprovalNotes = strings.TrimSpace(req.Notes)
		request.ApprovalDate = &now
	})
}

func (s *service) Reject(ctx context.Context, id string, actor identity.Actor, reason string) (*domain.FridgeRequest, error) {
	return s.transition(ctx, id, actor, domain.StatusRejected, func(request *domain.FridgeRequest) {
		now := s.clock.Now()
		request.ApprovedBy = strings.TrimSpace(actor.ID)
		request.ApprovalNotes = strings.TrimSpace(reason)
		request.ApprovalDate = &now
	})
}

func (s *service) Complete(ctx context.Context, id string, actor identity.Actor) (*domain.FridgeRequest, error) {
	return s.transition(ctx, id, actor, domain.StatusCompleted, func(request *domain.FridgeRequest) {})
}

func (s *service) transition(ctx context.Context, id string, actor identity.Actor, target domain.Status, apply func(*domain.FridgeRequest)) (*domain.FridgeRequest, error) {
	requestID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var request *domain.FridgeRequest
	var previous domain.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err = s.repo.FindByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request == nil {
			return domain.ErrNotFound
		}
		if !isTransitionAllowed(request.Status, target) {
			return domain.ErrInvalidTransition
		}

		previous = request.Status
		request.Status = target
		apply(request)
		request.UpdatedAt = s.clock.Now()
		return s.repo.Save(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition("fridge_request", string(previous), string(target))

	s.log.Info("fridge request transitioned",
		zap.String("request_id", requestID.String()),
		zap.String("status", string(target)),
		zap.String("actor_id", actor.ID),
	)
	return request, nil
}

func (s *service) Allocate(ctx context.Context, req domain.AllocateRequest) (*domain.FridgeRequest, error) {
	requestID, err := parseID(req.RequestID)
	if err != nil {
		return nil, err
	}
	if len(req.EquipmentIDs) == 0 {
		return nil, domain.ErrNoUnitsSelected
	}

	request, err := s.repo.FindByID(ctx, s.db, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, domain.ErrNotFound
	}
	if request.Status != domain.StatusApproved {
		return nil, domain.ErrInvalidTransition
	}

	approved := request.Quantity
	if request.ApprovedQuantity != nil {
		approved = *request.ApprovedQuantity
	}
	if len(req.EquipmentIDs) > approved {
		return nil, domain.ErrQuantityExceedsApproved
	}

	available, err := s.equipmentRepo.CountByStatus(ctx, s.db, equipmentdomain.StatusAvailable)
	if err != nil {
		return nil, err
	}
	if available < int64(len(req.EquipmentIDs)) {
		return nil, domain.ErrNotEnoughStock
	}

	note := strings.TrimSpace(req.Notes)
	if note == "" {
		note = fmt.Sprintf("allocated via fridge request %s", requestID)
	}

	// Each unit allocation commits on its own; a failure part way through
	// leaves the request approved so the remainder can be retried.
	for _, equipmentID := range req.EquipmentIDs {
		_, err := s.equipment.Allocate(ctx, equipmentdomain.AllocateRequest{
			EquipmentID: equipmentID,
			CustomerID:  request.CustomerID.String(),
			Actor:       req.Actor,
			Notes:       note,
		})
		if err != nil {
			return nil, err
		}
	}

	return s.transition(ctx, req.RequestID, req.Actor, domain.StatusAllocated, func(request *domain.FridgeRequest) {
		now := s.clock.Now()
		request.AllocatedBy = strings.TrimSpace(req.Actor.ID)
		request.AllocationNotes = strings.TrimSpace(req.Notes)
		request.AllocationDate = &now
	})
}

func (s *service) Get(ctx context.Context, id string) (*domain.FridgeRequest, error) {
	requestID, err := parseID(id)
	if err != nil {
		return nil, err
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
		status := domain.Status(req.Status)
		if !domain.IsValidStatus(status) {
			return domain.ListRequestsResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if req.CustomerID != "" {
		customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
		if err != nil || customerID == 0 {
			return domain.ListRequestsResponse{}, domain.ErrCustomerNotFound
		}
		filter.CustomerID = customerID
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

	requests, pageInfo := pagination.BuildPageInfo(requests, page.PageSize, func(r domain.FridgeRequest) pagination.Cursor {
		return pagination.Cursor{ID: r.ID, CreatedAt: r.CreatedAt}
	})

	return domain.ListRequestsResponse{
		PageInfo: pageInfo,
		Requests: requests,
	}, nil
}

func (s *service) Overdue(ctx context.Context, olderThan time.Duration) ([]domain.FridgeRequest, error) {
	cutoff := s.clock.Now().Add(-olderThan)
	return s.repo.ListOverdue(ctx, s.db, cutoff, 0)
}
