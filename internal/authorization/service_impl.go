package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/coldchain/internal/identity"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor identity.Actor, object string, action string) error {
	_ = ctx

	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := actor.Subject()
	if subject == "user:" || !identity.IsValidRole(actor.Role) {
		return ErrInvalidActor
	}

	roleName := "role:" + strings.ToLower(actor.Role)
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Customers report faults against their own units and read back status.
		{"role:customer", ObjectFaultReport, ActionFaultReportCreate},
		{"role:customer", ObjectFaultReport, ActionFaultReportView},
		{"role:customer", ObjectEquipment, ActionEquipmentView},
		{"role:customer", ObjectFridgeRequest, ActionFridgeRequestCreate},
		{"role:customer", ObjectFridgeRequest, ActionFridgeRequestView},
		{"role:customer", ObjectNotification, ActionNotificationView},

		// Fault technicians own the repair workflow.
		{"role:fault_technician", ObjectEquipment, ActionEquipmentView},
		{"role:fault_technician", ObjectFaultReport, ActionFaultReportView},
		{"role:fault_technician", ObjectFaultReport, ActionFaultReportAssign},
		{"role:fault_technician", ObjectFaultReport, ActionFaultReportDiagnose},
		{"role:fault_technician", ObjectFaultReport, ActionFaultReportSchedule},
		{"role:fault_technician", ObjectFaultReport, ActionFaultReportRepair},
		{"role:fault_technician", ObjectNotification, ActionNotificationView},

		// Maintenance technicians own preventive maintenance.
		{"role:maintenance_technician", ObjectEquipment, ActionEquipmentView},
		{"role:maintenance_technician", ObjectMaintenance, ActionMaintenanceView},
		{"role:maintenance_technician", ObjectMaintenance, ActionMaintenanceSchedule},
		{"role:maintenance_technician", ObjectMaintenance, ActionMaintenanceStart},
		{"role:maintenance_technician", ObjectMaintenance, ActionMaintenanceComplete},
		{"role:maintenance_technician", ObjectMaintenance, ActionMaintenanceCancel},
		{"role:maintenance_technician", ObjectNotification, ActionNotificationView},

		// Purchasing reviews restock requests.
		{"role:purchasing_manager", ObjectRestockRequest, ActionRestockRequestView},
		{"role:purchasing_manager", ObjectRestockRequest, ActionRestockRequestCreate},
		{"role:purchasing_manager", ObjectRestockRequest, ActionRestockRequestClose},
		{"role:purchasing_manager", ObjectNotification, ActionNotificationView},

		// Inventory liaisons track stock and the ledger.
		{"role:inventory_liaison", ObjectEquipment, ActionEquipmentView},
		{"role:inventory_liaison", ObjectAllocationEntry, ActionAllocationEntryView},
		{"role:inventory_liaison", ObjectRestockRequest, ActionRestockRequestView},
		{"role:inventory_liaison", ObjectFridgeRequest, ActionFridgeRequestView},
		{"role:inventory_liaison", ObjectFridgeRequest, ActionFridgeRequestReview},
		{"role:inventory_liaison", ObjectFridgeRequest, ActionFridgeRequestAllocate},
		{"role:inventory_liaison", ObjectNotification, ActionNotificationView},

		// Administrators can do everything.
		{"role:admin", ObjectEquipment, ActionEquipmentView},
		{"role:admin", ObjectEquipment, ActionEquipmentRegister},
		{"role:admin", ObjectEquipment, ActionEquipmentAllocate},
		{"role:admin", ObjectEquipment, ActionEquipmentScrap},
		{"role:admin", ObjectFaultReport, ActionFaultReportView},
		{"role:admin", ObjectFaultReport, ActionFaultReportCreate},
		{"role:admin", ObjectFaultReport, ActionFaultReportAssign},
		{"role:admin", ObjectFaultReport, ActionFaultReportDiagnose},
		{"role:admin", ObjectFaultReport, ActionFaultReportSchedule},
		{"role:admin", ObjectFaultReport, ActionFaultReportRepair},
		{"role:admin", ObjectFaultReport, ActionFaultReportClose},
		{"role:admin", ObjectFaultReport, ActionFaultReportEscalate},
		{"role:admin", ObjectMaintenance, ActionMaintenanceView},
		{"role:admin", ObjectMaintenance, ActionMaintenanceSchedule},
		{"role:admin", ObjectMaintenance, ActionMaintenanceStart},
		{"role:admin", ObjectMaintenance, ActionMaintenanceComplete},
		{"role:admin", ObjectMaintenance, ActionMaintenanceCancel},
		{"role:admin", ObjectAllocationEntry, ActionAllocationEntryView},
		{"role:admin", ObjectRestockRequest, ActionRestockRequestView},
		{"role:admin", ObjectRestockRequest, ActionRestockRequestCreate},
		{"role:admin", ObjectRestockRequest, ActionRestockRequestClose},
		{"role:admin", ObjectFridgeRequest, ActionFridgeRequestView},
		{"role:admin", ObjectFridgeRequest, ActionFridgeRequestCreate},
		{"role:admin", ObjectFridgeRequest, ActionFridgeRequestReview},
		{"role:admin", ObjectFridgeRequest, ActionFridgeRequestAllocate},
		{"role:admin", ObjectNotification, ActionNotificationView},

		// Background jobs run with full workflow permissions.
		{"role:system", ObjectEquipment, ActionEquipmentView},
		{"role:system", ObjectEquipment, ActionEquipmentRegister},
		{"role:system", ObjectEquipment, ActionEquipmentAllocate},
		{"role:system", ObjectFaultReport, ActionFaultReportView},
		{"role:system", ObjectFaultReport, ActionFaultReportEscalate},
		{"role:system", ObjectMaintenance, ActionMaintenanceView},
		{"role:system", ObjectRestockRequest, ActionRestockRequestView},
		{"role:system", ObjectRestockRequest, ActionRestockRequestCreate},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
