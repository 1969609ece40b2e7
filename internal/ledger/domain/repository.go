package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// EntryFilter narrows ledger reads. Results are always ordered by
// action_date with id as the tie-break, and the page cursor resumes on
// that same compound key so back-dated entries are never skipped.
type EntryFilter struct {
	EquipmentID     snowflake.ID
	CustomerID      snowflake.ID
	Action          AllocationAction
	AfterActionDate time.Time
	AfterID         snowflake.ID
	Limit           int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AllocationEntry) error
	List(ctx context.Context, db *gorm.DB, filter EntryFilter) ([]AllocationEntry, error)
}
