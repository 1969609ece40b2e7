package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/config"
	"github.com/smallbiznis/coldchain/internal/identity"
	identitydomain "github.com/smallbiznis/coldchain/internal/identity/domain"
	referencedomain "github.com/smallbiznis/coldchain/internal/reference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

type Param struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
}

// Run inserts development reference data when the tables are empty. It is
// a no-op outside dev environments.
func Run(p Param) error {
	if !p.Config.SeedDevData {
		return nil
	}
	ctx := context.Background()
	log := p.Log.Named("seed")

	var userCount int64
	if err := p.DB.WithContext(ctx).Model(&identitydomain.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount == 0 {
		users := []identitydomain.User{
			{ID: p.GenID.Generate(), Name: "Dev Admin", Email: "admin@coldchain.local", Role: identity.RoleAdministrator, Active: true},
			{ID: p.GenID.Generate(), Name: "Fiona Repairs", Email: "fiona@coldchain.local", Role: identity.RoleFaultTechnician, Active: true},
			{ID: p.GenID.Generate(), Name: "Milo Service", Email: "milo@coldchain.local", Role: identity.RoleMaintenanceTechnician, Active: true},
			{ID: p.GenID.Generate(), Name: "Priya Purchasing", Email: "priya@coldchain.local", Role: identity.RolePurchasingManager, Active: true},
			{ID: p.GenID.Generate(), Name: "Liam Liaison", Email: "liam@coldchain.local", Role: identity.RoleInventoryLiaison, Active: true},
		}
		if err := p.DB.WithContext(ctx).Create(&users).Error; err != nil {
			return err
		}
		log.Info("seeded users", zap.Int("count", len(users)))
	}

	var customerCount int64
	if err := p.DB.WithContext(ctx).Model(&referencedomain.Customer{}).Count(&customerCount).Error; err != nil {
		return err
	}
	if customerCount == 0 {
		customers := []referencedomain.Customer{
			{ID: p.GenID.Generate(), BusinessName: "Corner Grocer", ContactEmail: "owner@cornergrocer.example", Active: true},
			{ID: p.GenID.Generate(), BusinessName: "Harbor Fishmongers", ContactEmail: "ops@harborfish.example", Active: true},
		}
		if err := p.DB.WithContext(ctx).Create(&customers).Error; err != nil {
			return err
		}
		log.Info("seeded customers", zap.Int("count", len(customers)))
	}

	var supplierCount int64
	if err := p.DB.WithContext(ctx).Model(&referencedomain.Supplier{}).Count(&supplierCount).Error; err != nil {
		return err
	}
	if supplierCount == 0 {
		suppliers := []referencedomain.Supplier{
			{ID: p.GenID.Generate(), Name: "Polar Equipment Co", Active: true},
			{ID: p.GenID.Generate(), Name: "Glacier Wholesale", Active: true},
		}
		if err := p.DB.WithContext(ctx).Create(&suppliers).Error; err != nil {
			return err
		}
		log.Info("seeded suppliers", zap.Int("count", len(suppliers)))
	}

	return nil
}
