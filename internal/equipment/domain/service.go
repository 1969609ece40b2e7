package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/coldchain/internal/identity"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
)

type AllocateRequest struct {
	EquipmentID string
	CustomerID  string
	Actor       identity.Actor
	Notes       string
}

type DeallocateRequest struct {
	EquipmentID string
	Actor       identity.Actor
	Notes       string
}

type ScrapRequest struct {
	EquipmentID string
	Actor       identity.Actor
	Reason      string
}

type ReceiveBatchRequest struct {
	SupplierID   string
	Model        string
	SerialPrefix string
	Quantity     int
	Actor        identity.Actor
}

type ReceiveBatchResponse struct {
	Created        []Equipment `json:"created"`
	SkippedSerials []string    `json:"skipped_serials,omitempty"`
}

type ListEquipmentRequest struct {
	pagination.Pagination
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
}

type ListEquipmentResponse struct {
	pagination.PageInfo
	Equipment []Equipment `json:"equipment"`
}

type Service interface {
	Allocate(ctx context.Context, req AllocateRequest) (*Equipment, error)
	Deallocate(ctx context.Context, req DeallocateRequest) (*Equipment, error)
	Scrap(ctx context.Context, req ScrapRequest) (*Equipment, error)
	ReceiveBatch(ctx context.Context, req ReceiveBatchRequest) (ReceiveBatchResponse, error)
	Get(ctx context.Context, id string) (*Equipment, error)
	List(ctx context.Context, req ListEquipmentRequest) (ListEquipmentResponse, error)
}

var (
	ErrNotFound          = errors.New("equipment_not_found")
	ErrInvalidID         = errors.New("invalid_equipment_id")
	ErrInvalidTransition = errors.New("invalid_equipment_transition")
	ErrCustomerNotFound  = errors.New("customer_not_found")
	ErrSupplierNotFound  = errors.New("supplier_not_found")
	ErrReasonTooShort    = errors.New("scrap_reason_too_short")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidStatus     = errors.New("invalid_status_filter")
	ErrSerialExists      = errors.New("serial_number_exists")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
