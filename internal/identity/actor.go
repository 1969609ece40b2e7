package identity

import (
	"context"
	"strings"
)

// Roles recognized by the workflow engine. Accounts themselves are managed
// by an external identity provider; requests carry the resolved role.
const (
	RoleAdministrator         = "admin"
	RoleFaultTechnician       = "fault_technician"
	RoleMaintenanceTechnician = "maintenance_technician"
	RolePurchasingManager     = "purchasing_manager"
	RoleInventoryLiaison      = "inventory_liaison"
	RoleCustomer              = "customer"
	RoleSystem                = "system"
)

// Actor identifies who is performing an operation.
type Actor struct {
	ID   string
	Role string
}

// System is the actor used by background jobs.
var System = Actor{ID: "system", Role: RoleSystem}

// Subject returns the casbin subject for the actor.
func (a Actor) Subject() string {
	if a.Role == RoleSystem {
		return "system"
	}
	return "user:" + strings.TrimSpace(a.ID)
}

// IsValidRole reports whether role is one the engine recognizes.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdministrator, RoleFaultTechnician, RoleMaintenanceTechnician,
		RolePurchasingManager, RoleInventoryLiaison, RoleCustomer, RoleSystem:
		return true
	default:
		return false
	}
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the acting identity on the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting identity, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
