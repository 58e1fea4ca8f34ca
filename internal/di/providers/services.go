package providers

import (
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/libraryapp/library-server/internal/auth"
	"github.com/libraryapp/library-server/internal/config"
	"github.com/libraryapp/library-server/internal/graph"
	"github.com/libraryapp/library-server/internal/logger"
	"github.com/libraryapp/library-server/internal/pubsub"
	"github.com/libraryapp/library-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, cfg.Auth.SharedPassword, log.Logger)
}

// ProvideCatalogService provides the book and author catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	broker := do.MustInvoke[*pubsub.Broker](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, broker, log.Logger), nil
}

// ProvideResolver provides the root GraphQL resolver.
func ProvideResolver(i do.Injector) (*graph.Resolver, error) {
	catalogService := do.MustInvoke[*service.CatalogService](i)
	authService := do.MustInvoke[*service.AuthService](i)
	broker := do.MustInvoke[*pubsub.Broker](i)
	log := do.MustInvoke[*logger.Logger](i)

	return graph.NewResolver(catalogService, authService, broker, log.Logger), nil
}

// ProvideSchema parses the GraphQL schema against the root resolver.
func ProvideSchema(i do.Injector) (*graphql.Schema, error) {
	resolver := do.MustInvoke[*graph.Resolver](i)
	return graph.NewSchema(resolver), nil
}
