package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusOrdered   RequestStatus = "ordered"
	StatusFulfilled RequestStatus = "fulfilled"
)

func IsValidRequestStatus(status RequestStatus) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusOrdered, StatusFulfilled:
		return true
	default:
		return false
	}
}

type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
)

// PurchaseRequest asks purchasing for more units. Auto marks requests the
// restock monitor generated; at most one pending auto request exists at a
// time.
type PurchaseRequest struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	Quantity      int             `json:"quantity"`
	Reason        string          `json:"reason"`
	Status        RequestStatus   `gorm:"index" json:"status"`
	EstimatedCost int64           `json:"estimated_cost"`
	Priority      RequestPriority `json:"priority"`
	Auto          bool            `json:"auto"`
	RequestedBy   string          `json:"requested_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}
