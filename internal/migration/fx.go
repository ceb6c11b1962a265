package migration

import (
	"github.com/smallbiznis/weighbill/internal/config"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	ratedomain "github.com/smallbiznis/weighbill/internal/rate/domain"
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType == "sqlite" {
			log.Warn("sqlite store has no migration set, creating tables from models")
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB, cfg.DBType)
	}),
)

// AutoMigrate creates the reference tables from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&providerdomain.Provider{},
		&truckdomain.Truck{},
		&ratedomain.Rate{},
	)
}
