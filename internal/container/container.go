// Package container wires the application dependencies with dig.
package container

import (
	"chat-relay/internal/config"
	"chat-relay/internal/db"
	"chat-relay/internal/handler"
	"chat-relay/internal/httpclient"
	"chat-relay/internal/relay"
	"chat-relay/internal/router"
	"chat-relay/internal/services"
	"chat-relay/internal/store"
	"chat-relay/internal/upstream"

	"chat-relay/internal/app"

	"go.uber.org/dig"
)

// BuildContainer registers all constructors. The UI assets (embed.FS and
// index page) are provided by main, since go:embed only works there.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		config.NewManager,
		store.NewStore,
		db.NewDB,
		httpclient.NewManager,
		upstream.NewClient,
		services.NewStatsService,
		services.NewRelayLogService,
		relay.NewHandler,
		handler.NewServer,
		router.NewRouter,
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
