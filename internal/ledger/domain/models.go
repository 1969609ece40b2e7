package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AllocationAction enumerates the append-only ledger actions.
type AllocationAction string

const (
	ActionReceived    AllocationAction = "received"
	ActionAllocated   AllocationAction = "allocated"
	ActionDeallocated AllocationAction = "deallocated"
	ActionScrapped    AllocationAction = "scrapped"
)

// AllocationEntry is one immutable row in the equipment custody history.
// Rows are never updated or deleted, and workflow logic never reads them
// back to derive state.
type AllocationEntry struct {
	ID          snowflake.ID     `gorm:"primaryKey" json:"id"`
	EquipmentID snowflake.ID     `gorm:"index" json:"equipment_id"`
	CustomerID  *snowflake.ID    `json:"customer_id,omitempty"`
	Action      AllocationAction `json:"action"`
	ActorID     string           `json:"actor_id"`
	Note        string           `json:"note,omitempty"`
	ActionDate  time.Time        `json:"action_date"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (AllocationEntry) TableName() string {
	return "allocation_entries"
}

func IsValidAction(action AllocationAction) bool {
	switch action {
	case ActionReceived, ActionAllocated, ActionDeallocated, ActionScrapped:
		return true
	default:
		return false
	}
}
