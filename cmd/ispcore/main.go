// @title           ISP Core API
// @version         1.0
// @description     Back-office API for Dominican ISP operations
// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/weperezh01/isp-core/internal/accounting"
	"github.com/weperezh01/isp-core/internal/audit"
	"github.com/weperezh01/isp-core/internal/auth"
	"github.com/weperezh01/isp-core/internal/authorization"
	"github.com/weperezh01/isp-core/internal/billingcycle"
	"github.com/weperezh01/isp-core/internal/client"
	"github.com/weperezh01/isp-core/internal/clock"
	"github.com/weperezh01/isp-core/internal/config"
	"github.com/weperezh01/isp-core/internal/connection"
	"github.com/weperezh01/isp-core/internal/dashboard"
	"github.com/weperezh01/isp-core/internal/events"
	"github.com/weperezh01/isp-core/internal/invoice"
	"github.com/weperezh01/isp-core/internal/isp"
	"github.com/weperezh01/isp-core/internal/migration"
	"github.com/weperezh01/isp-core/internal/observability"
	"github.com/weperezh01/isp-core/internal/permission"
	permissionsync "github.com/weperezh01/isp-core/internal/permission/sync"
	"github.com/weperezh01/isp-core/internal/receipt"
	"github.com/weperezh01/isp-core/internal/router"
	"github.com/weperezh01/isp-core/internal/scheduler"
	"github.com/weperezh01/isp-core/internal/seed"
	"github.com/weperezh01/isp-core/internal/server"
	"github.com/weperezh01/isp-core/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if err := seed.EnsurePermissionCatalog(conn); err != nil {
				return err
			}
			if cfg.EnsureDefaultISPAndAdmin {
				return seed.EnsureDefaultISPAndAdmin(conn)
			}
			return nil
		}),
		isp.Module,
		auth.Module,
		authorization.Module,
		audit.Module,
		client.Module,
		router.Module,
		connection.Module,
		billingcycle.Module,
		invoice.Module,
		receipt.Module,
		permission.Module,
		permissionsync.Module,
		accounting.Module,
		dashboard.Module,
		events.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}
