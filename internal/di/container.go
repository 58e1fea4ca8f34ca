// Package di provides dependency injection configuration for the library
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/libraryapp/library-server/internal/auth"
	"github.com/libraryapp/library-server/internal/config"
	"github.com/libraryapp/library-server/internal/di/providers"
	"github.com/libraryapp/library-server/internal/graph"
	"github.com/libraryapp/library-server/internal/logger"
	"github.com/libraryapp/library-server/internal/pubsub"
	"github.com/libraryapp/library-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Events
	do.Provide(injector, providers.ProvideBroker)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)

	// GraphQL schema
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideSchema)

	// Background workers
	do.Provide(injector, providers.ProvideBackupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. This triggers lazy initialization of
// every provider, so a misconfiguration fails at startup instead of on the
// first request.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*pubsub.Broker](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*graph.Resolver](injector)
	_ = do.MustInvoke[*providers.BackupJob](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
