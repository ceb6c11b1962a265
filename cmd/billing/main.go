package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/weighbill/internal/config"
	"github.com/smallbiznis/weighbill/internal/migration"
	"github.com/smallbiznis/weighbill/internal/observability"
	"github.com/smallbiznis/weighbill/internal/server"
	"github.com/smallbiznis/weighbill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
