package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/projectnest/projectnest/internal/clock"
	"github.com/projectnest/projectnest/internal/config"
	"github.com/projectnest/projectnest/internal/gateway/paystack"
	"github.com/projectnest/projectnest/internal/identity"
	"github.com/projectnest/projectnest/internal/migration"
	"github.com/projectnest/projectnest/internal/notify"
	"github.com/projectnest/projectnest/internal/observability"
	"github.com/projectnest/projectnest/internal/payment"
	"github.com/projectnest/projectnest/internal/project"
	"github.com/projectnest/projectnest/internal/providers"
	"github.com/projectnest/projectnest/internal/ratelimit"
	"github.com/projectnest/projectnest/internal/scheduler"
	"github.com/projectnest/projectnest/internal/seed"
	"github.com/projectnest/projectnest/internal/server"
	"github.com/projectnest/projectnest/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		identity.Module,
		paystack.Module,
		providers.Module,
		notify.Module,
		ratelimit.Module,
		payment.Module,
		project.Module,
		scheduler.Module,
		seed.Module,

		server.Module,
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
