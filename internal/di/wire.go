//go:build wireinject
// +build wireinject

package di

import (
	"GanttGen/internal/handler/api"
	"GanttGen/internal/usecase"
	"GanttGen/pkg/config"
	"GanttGen/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideSessionCache,
		ProvideEventPublisher,
		ProvideCompleter,
		ProvideRateLimiter,

		// Repositories and services
		ProvideSessionStore,
		ProvideExtractor,
		ProvidePrompts,
		ProvideLayout,

		// Use cases
		usecase.NewChartGenerator,
		usecase.NewTaskAnalyzer,

		// HTTP
		api.NewChartsEchoHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
