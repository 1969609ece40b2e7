package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/pkg/db/pagination"
	"gorm.io/gorm"
)

// AppendRequest records one custody action.
type AppendRequest struct {
	EquipmentID snowflake.ID
	CustomerID  *snowflake.ID
	Action      AllocationAction
	ActorID     string
	Note        string
	ActionDate  time.Time
}

type ListEntriesRequest struct {
	pagination.Pagination
	EquipmentID string `form:"equipment_id"`
	CustomerID  string `form:"customer_id"`
	Action      string `form:"action"`
}

type ListEntriesResponse struct {
	pagination.PageInfo
	Entries []AllocationEntry `json:"entries"`
}

// Service appends to and reads the custody trail. AppendTx joins the
// caller's transaction so the entry commits or rolls back with the
// equipment mutation it describes.
type Service interface {
	Append(ctx context.Context, req AppendRequest) error
	AppendTx(ctx context.Context, tx *gorm.DB, req AppendRequest) error
	List(ctx context.Context, req ListEntriesRequest) (ListEntriesResponse, error)
	ListByEquipment(ctx context.Context, equipmentID string) ([]AllocationEntry, error)
	ListByCustomer(ctx context.Context, customerID string) ([]AllocationEntry, error)
}

var (
	ErrInvalidEquipment = errors.New("invalid_equipment")
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
