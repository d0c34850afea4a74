package types

import (
	"context"
	"net/http"
	"time"

	"github.com/emblem-network/emblemx/pkg/accounts"
	"github.com/emblem-network/emblemx/pkg/redis"
	"github.com/emblem-network/emblemx/pkg/retry"
	"github.com/emblem-network/emblemx/pkg/rpc"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type App struct {
	// Engine is the account cache and reconciliation engine.
	Engine *accounts.Engine
	// Gateway is the remote fetch gateway to the indexing API.
	Gateway *rpc.Client
	// RedisClient fans committed keys out to sibling processes; optional.
	RedisClient *redis.Client
	// Cron drives the watchlist refresher, according to CronSpec.
	Cron     *cron.Cron
	CronSpec string
	// WatchKeys are accounts kept fresh by the refresher (forceful refresh).
	WatchKeys []string
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// SetupScheduler sets up the cron scheduler for the watchlist refresher.
func (a *App) SetupScheduler(ctx context.Context, logger cron.Logger, cronSpec string) error {
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(logger)))

	_, err := a.Cron.AddFunc(cronSpec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if err := a.RefreshWatchlist(rctx); err != nil {
			logger.Info("[query] watchlist refresh error", "error", err)
		}
	})
	if err != nil {
		return err
	}

	return nil
}

// RefreshWatchlist forcefully refreshes every watched account: records are
// invalidated first so the planner treats them as fully uncached, then a
// full-profile fetch cycle runs with backoff against transient gateway
// failures.
func (a *App) RefreshWatchlist(ctx context.Context) error {
	if len(a.WatchKeys) == 0 {
		return nil
	}

	a.Engine.Invalidate(a.WatchKeys...)

	reqs := make([]accounts.FetchRequest, 0, len(a.WatchKeys))
	for _, key := range a.WatchKeys {
		reqs = append(reqs, accounts.FetchRequest{
			Address:       key,
			FetchSequence: true,
			FetchBalance:  true,
		})
	}

	return retry.WithBackoff(ctx, retry.DefaultConfig(), a.Logger, "watchlist refresh", func() error {
		return a.Engine.FetchAccounts(ctx, reqs)
	})
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	if a.Cron == nil {
		return
	}
	a.Cron.Start()
	a.Logger.Info("[query] Cron started", zap.String("cronSpec", a.CronSpec))
}

// StopCron stops the cron scheduler.
func (a *App) StopCron() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	a.StartCron()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.StopCron()

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
