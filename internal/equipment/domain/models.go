package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusAvailable        Status = "available"
	StatusAllocated        Status = "allocated"
	StatusFaulty           Status = "faulty"
	StatusUnderMaintenance Status = "under_maintenance"
	StatusScrapped         Status = "scrapped"
)

func IsValidStatus(status Status) bool {
	switch status {
	case StatusAvailable, StatusAllocated, StatusFaulty, StatusUnderMaintenance, StatusScrapped:
		return true
	default:
		return false
	}
}

// Equipment is one refrigeration unit. SerialNumber and SupplierID are
// immutable after receipt. CustomerID is set while the unit is with a
// customer; it survives faulty/under_maintenance so repairs and service
// hand the unit back to the same customer. Scrapped is terminal and the
// row is retained.
type Equipment struct {
	ID                  snowflake.ID  `gorm:"primaryKey" json:"id"`
	Model               string        `json:"model"`
	SerialNumber        string        `gorm:"uniqueIndex" json:"serial_number"`
	Status              Status        `gorm:"index" json:"status"`
	CustomerID          *snowflake.ID `gorm:"index" json:"customer_id,omitempty"`
	SupplierID          *snowflake.ID `json:"supplier_id,omitempty"`
	PurchaseDate        *time.Time    `json:"purchase_date,omitempty"`
	LastMaintenanceDate *time.Time    `json:"last_maintenance_date,omitempty"`
	NextMaintenanceDate *time.Time    `json:"next_maintenance_date,omitempty"`
	ScrapReason         string        `json:"scrap_reason,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (Equipment) TableName() string {
	return "equipment"
}
