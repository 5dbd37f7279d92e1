package app

import (
	"context"
	"net/http"
	"time"

	"github.com/yungbote/chatcortex/internal/command"
	"github.com/yungbote/chatcortex/internal/platform/dashboard"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/platform/promptstyle"
)

const dashboardBroadcastInterval = 5 * time.Second

// App is every wired component the composition root produced. Run starts
// every background goroutine (notify bridge, indexing orchestrator,
// per-queue workers, the two daily schedulers, the watchdog, the optional
// dashboard broadcast loop, and the HTTP server) under one cancellable
// context and blocks until ctx is done, then shuts everything down in
// reverse order.
type App struct {
	cfg        Config
	log        *logger.Logger
	clients    *Clients
	repos      *Repos
	queues     *Queues
	services   *Services
	workers    *Workers
	dispatcher *command.Dispatcher
	http       *httpServer
}

// New builds every layer of the application from configuration: clients,
// repos, queues, services, the command dispatcher, workers, and the HTTP
// surface, in that dependency order.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	clients, err := BuildClients(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	repos := BuildRepos(clients.DB, log)
	queues := BuildQueues(clients.DB, cfg, clients.Notify, log)
	prompts := promptstyle.NewRegistry(repos.Settings, log)
	services := BuildServices(cfg, clients, repos, queues, prompts, log)
	dispatcher := BuildDispatcher(cfg, repos, queues, log)
	workers := BuildWorkers(cfg, clients, repos, queues, services, log)
	srv := buildHTTPServer(cfg, queues, log)

	return &App{
		cfg: cfg, log: log, clients: clients, repos: repos, queues: queues,
		services: services, workers: workers, dispatcher: dispatcher, http: srv,
	}, nil
}

// Dispatcher exposes the built command dispatcher to an inbound transport
// adapter (out of scope here; spec.md §1).
func (a *App) Dispatcher() *command.Dispatcher { return a.dispatcher }

// Run starts every background goroutine and the HTTP listener, then blocks
// until ctx is cancelled. It always returns nil; shutdown errors are logged,
// not propagated, since by the time they occur the caller has already
// decided to exit.
func (a *App) Run(ctx context.Context) error {
	shutdownOtel := InitOTel(ctx, a.log, OtelConfig{ServiceName: "chatcortex", Environment: a.cfg.LogMode, Version: "dev"})

	go a.clients.Notify.Run(ctx, 2*time.Second)
	go a.services.Orchestrator.Run(ctx)
	go a.workers.Ask.Run(ctx)
	go a.workers.Summary.Run(ctx)
	go a.workers.Truth.Run(ctx)
	go a.workers.Profile.Run(ctx)
	go a.workers.ProfileScheduler.Run(ctx)
	go a.workers.SummaryScheduler.Run(ctx)
	go a.workers.Watchdog.Run(ctx)

	if a.clients.DashboardBus != nil {
		go dashboard.BroadcastLoop(ctx, a.clients.DashboardBus, a.queues.Named(), dashboardBroadcastInterval, a.log)
	}

	if a.cfg.AdminPasswordHash == "" {
		// No login credential configured: mint the dashboard token once at
		// startup so the dashboard stays reachable.
		if token, err := a.http.issueAdminToken(); err != nil {
			a.log.Warn("failed to mint startup admin token", "error", err)
		} else {
			a.log.Info("admin dashboard token minted", "token", token)
		}
	}

	srv := &http.Server{Addr: a.cfg.HTTPAddr, Handler: a.http.engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("http server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http server shutdown error", "error", err)
	}
	if err := shutdownOtel(shutdownCtx); err != nil {
		a.log.Warn("otel shutdown error", "error", err)
	}
	a.clients.Close(shutdownCtx)

	return nil
}

