package providers

import (
	"context"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/libraryapp/library-server/internal/api"
	"github.com/libraryapp/library-server/internal/config"
	"github.com/libraryapp/library-server/internal/logger"
	"github.com/libraryapp/library-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the
// background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	schema := do.MustInvoke[*graphql.Schema](i)
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(schema, authService, api.Config{
		EnablePlayground: cfg.Server.EnablePlayground,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "playground", cfg.Server.EnablePlayground)

	return &HTTPServerHandle{Server: srv}, nil
}
