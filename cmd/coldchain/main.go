package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coldchain/internal/authorization"
	"github.com/smallbiznis/coldchain/internal/clock"
	"github.com/smallbiznis/coldchain/internal/config"
	"github.com/smallbiznis/coldchain/internal/equipment"
	"github.com/smallbiznis/coldchain/internal/faultreport"
	"github.com/smallbiznis/coldchain/internal/fridgerequest"
	"github.com/smallbiznis/coldchain/internal/identity"
	"github.com/smallbiznis/coldchain/internal/inventory"
	"github.com/smallbiznis/coldchain/internal/ledger"
	"github.com/smallbiznis/coldchain/internal/maintenance"
	"github.com/smallbiznis/coldchain/internal/migration"
	"github.com/smallbiznis/coldchain/internal/notification"
	"github.com/smallbiznis/coldchain/internal/observability"
	"github.com/smallbiznis/coldchain/internal/reference"
	"github.com/smallbiznis/coldchain/internal/scanner"
	"github.com/smallbiznis/coldchain/internal/seed"
	"github.com/smallbiznis/coldchain/internal/server"
	"github.com/smallbiznis/coldchain/pkg/db"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		seed.Module,

		identity.Module,
		reference.Module,
		authorization.Module,
		ledger.Module,
		notification.Module,
		equipment.Module,
		faultreport.Module,
		maintenance.Module,
		fridgerequest.Module,
		inventory.Module,

		scanner.Module,
		server.Module,
	).Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("snowflake node: %v", err)
	}
	return node
}
