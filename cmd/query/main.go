package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/emblem-network/emblemx/app/query"
	"github.com/robfig/cron/v3"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	app := query.Initialize(ctx)

	if len(app.WatchKeys) > 0 {
		if err := app.SetupScheduler(ctx, cron.DefaultLogger, app.CronSpec); err != nil {
			app.Logger.Fatal("Unable to initialize scheduler", zap.Error(err))
		}
	}

	serverErr := query.NewServer(app)
	if serverErr != nil {
		app.Logger.Fatal("Unable to initialize server", zap.Error(serverErr))
	}

	app.Start(ctx)
}
