package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/coldchain/internal/identity"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
)

type ListRequestsRequest struct {
	pagination.Pagination
	Status string `form:"status"`
}

type ListRequestsResponse struct {
	pagination.PageInfo
	Requests []PurchaseRequest `json:"requests"`
}

type Service interface {
	// CheckAndRequestRestock counts available units and raises a single
	// pending auto purchase request when the count drops below the
	// configured threshold. Reports whether a request was created and
	// the observed count.
	CheckAndRequestRestock(ctx context.Context) (bool, int64, error)
	Approve(ctx context.Context, id string, actor identity.Actor) (*PurchaseRequest, error)
	Reject(ctx context.Context, id string, actor identity.Actor) (*PurchaseRequest, error)
	Get(ctx context.Context, id string) (*PurchaseRequest, error)
	List(ctx context.Context, req ListRequestsRequest) (ListRequestsResponse, error)
	AvailableCount(ctx context.Context) (int64, error)
}

var (
	ErrNotFound          = errors.New("purchase_request_not_found")
	ErrInvalidID         = errors.New("invalid_purchase_request_id")
	ErrInvalidTransition = errors.New("invalid_purchase_request_transition")
	ErrInvalidStatus     = errors.New("invalid_status_filter")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
