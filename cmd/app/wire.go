//go:build wireinject
// +build wireinject

package main

import (
	"inspector/config"
	"inspector/internal/command"
	"inspector/internal/cron"
	"inspector/internal/database"
	"inspector/internal/handler"
	"inspector/internal/inspector"
	"inspector/internal/middleware"
	"inspector/internal/router"
	"inspector/internal/service"
	"inspector/internal/telemetry"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// wireApp init application.
func wireApp(*config.Configuration, *zap.Logger) (*App, func(), error) {
	panic(
		wire.Build(
			database.ProviderSet,
			inspector.ProviderSet,
			service.ProviderSet,
			handler.ProviderSet,
			middleware.ProviderSet,
			router.ProviderSet,
			cron.ProviderSet,
			newHttpServer,
			telemetry.ProviderSet,
			newApp,
		),
	)
}

// wireCommand init application.
func wireCommand(*config.Configuration, *zap.Logger) (*command.Command, func(), error) {
	panic(wire.Build(command.ProviderSet))
}
