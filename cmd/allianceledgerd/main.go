package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/karmafleet/allianceledger/internal/accounting"
	"github.com/karmafleet/allianceledger/internal/clock"
	"github.com/karmafleet/allianceledger/internal/config"
	"github.com/karmafleet/allianceledger/internal/eveapi"
	"github.com/karmafleet/allianceledger/internal/logger"
	"github.com/karmafleet/allianceledger/internal/metrics"
	"github.com/karmafleet/allianceledger/internal/migration"
	"github.com/karmafleet/allianceledger/internal/registry"
	"github.com/karmafleet/allianceledger/internal/runlock"
	"github.com/karmafleet/allianceledger/internal/scheduler"
	"github.com/karmafleet/allianceledger/internal/taxes"
	"github.com/karmafleet/allianceledger/internal/wallet"
	"github.com/karmafleet/allianceledger/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		runlock.Module,
		eveapi.Module,

		registry.Module,
		wallet.Module,
		taxes.Module,
		accounting.Module,
		scheduler.Module,

		migration.Module,
		fx.Invoke(StartScheduler),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func StartScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.RunForever(context.Background())
			return nil
		},
	})
}
