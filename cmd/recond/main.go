package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sellerdesk/recond/internal/clock"
	"github.com/sellerdesk/recond/internal/config"
	"github.com/sellerdesk/recond/internal/engine"
	"github.com/sellerdesk/recond/internal/ingest"
	"github.com/sellerdesk/recond/internal/migration"
	"github.com/sellerdesk/recond/internal/observability/logger"
	"github.com/sellerdesk/recond/internal/observability/metrics"
	"github.com/sellerdesk/recond/internal/server"
	"github.com/sellerdesk/recond/internal/worker"
	"github.com/sellerdesk/recond/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		fx.Provide(func(cfg config.Config) *metrics.EngineMetrics {
			return metrics.EngineWithConfig(metrics.Config{
				ServiceName: "recond",
				Environment: cfg.Environment,
			})
		}),
		fx.Provide(func(cfg config.Config, log *zap.Logger) (*engine.Engine, error) {
			return engine.New(cfg.EngineRules(), log)
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		ingest.Module,
		worker.Module,
		server.Module,
	)
	app.Run()
}
