package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/coldchain/internal/identity"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
)

type SubmitRequest struct {
	CustomerID      string
	Quantity        int
	Justification   string
	AdditionalNotes string
	Actor           identity.Actor
}

type ApproveRequest struct {
	RequestID        string
	ApprovedQuantity int
	Notes            string
	Actor            identity.Actor
}

type AllocateRequest struct {
	RequestID    string
	EquipmentIDs []string
	Notes        string
	Actor        identity.Actor
}

type ListRequestsRequest struct {
	pagination.Pagination
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
}

type ListRequestsResponse struct {
	pagination.PageInfo
	Requests []FridgeRequest `json:"requests"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*FridgeRequest, error)
	Review(ctx context.Context, id string, actor identity.Actor) (*FridgeRequest, error)
	Approve(ctx context.Context, req ApproveRequest) (*FridgeRequest, error)
	Reject(ctx context.Context, id string, actor identity.Actor, reason string) (*FridgeRequest, error)
	// Allocate hands approved units over to the requesting customer and
	// moves the request to allocated.
	Allocate(ctx context.Context, req AllocateRequest) (*FridgeRequest, error)
	Complete(ctx context.Context, id string, actor identity.Actor) (*FridgeRequest, error)
	Get(ctx context.Context, id string) (*FridgeRequest, error)
	List(ctx context.Context, req ListRequestsRequest) (ListRequestsResponse, error)
	// Overdue lists pending requests older than the cutoff.
	Overdue(ctx context.Context, olderThan time.Duration) ([]FridgeRequest, error)
}

var (
	ErrNotFound                = errors.New("fridge_request_not_found")
	ErrInvalidID               = errors.New("invalid_fridge_request_id")
	ErrInvalidTransition       = errors.New("invalid_fridge_request_transition")
	ErrDuplicatePending        = errors.New("duplicate_pending_fridge_request")
	ErrCustomerNotFound        = errors.New("customer_not_found")
	ErrInvalidQuantity         = errors.New("invalid_quantity")
	ErrJustificationLength     = errors.New("justification_length_out_of_range")
	ErrNoUnitsSelected         = errors.New("no_units_selected")
	ErrQuantityExceedsApproved = errors.New("quantity_exceeds_approved")
	ErrNotEnoughStock          = errors.New("not_enough_available_units")
	ErrInvalidStatus           = errors.New("invalid_status_filter")
	ErrInvalidPageToken        = errors.New("invalid_page_token")
)
