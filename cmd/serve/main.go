package main

import (
	"context"
	"log/slog"

	"github.com/eser/ajan/processfx"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/appcontext"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/http"
)

func main() {
	baseCtx := context.Background()

	appContext, err := appcontext.NewAppContext(baseCtx)
	if err != nil {
		panic(err)
	}

	process := processfx.New(baseCtx, appContext.Logger)

	err = appContext.Run(process.Ctx)
	if err != nil {
		appContext.Logger.ErrorContext(
			baseCtx,
			"[Main] Application layer startup failed",
			slog.String("module", "main"),
			slog.Any("error", err))

		panic(err)
	}

	process.StartGoroutine("http-server", func(ctx context.Context) error {
		cleanup, err := http.Run(
			process.Ctx,
			appContext,
		)

		if err != nil {
			appContext.Logger.ErrorContext(
				ctx,
				"[Main] HTTP server run failed",
				slog.String("module", "main"),
				slog.Any("error", err))
		}

		defer cleanup()

		<-ctx.Done()

		return nil
	})

	process.Wait()
	process.Shutdown()

	appContext.AnalyticsDb.Close()
}
