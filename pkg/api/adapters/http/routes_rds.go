package http

import (
	"errors"
	"net/http"

	"github.com/eser/ajan/httpfx"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/appcontext"
	"github.com/nakomis/nakom-admin/pkg/api/business/lifecycle"
)

func RegisterHttpRoutesForRds( //nolint:funlen
	routes *httpfx.Router,
	appContext *appcontext.AppContext,
) {
	routes.
		Route(
			"GET /rds/status",
			func(ctx *httpfx.Context) httpfx.Result {
				status, err := appContext.Lifecycle.Status(ctx.Request.Context())
				if err != nil {
					return lifecycleError(ctx, err)
				}

				return ctx.Results.Json(status)
			},
		).
		HasSummary("Instance status").
		HasDescription("Report the managed database instance's current status.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"POST /rds/start",
			func(ctx *httpfx.Context) httpfx.Result {
				result, err := appContext.Lifecycle.Start(ctx.Request.Context())
				if err != nil {
					return lifecycleError(ctx, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Start instance").
		HasDescription("Start the managed database instance and arm the auto-shutdown timer.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"POST /rds/stop",
			func(ctx *httpfx.Context) httpfx.Result {
				result, err := appContext.Lifecycle.Stop(ctx.Request.Context())
				if err != nil {
					return lifecycleError(ctx, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Stop instance").
		HasDescription("Stop the managed database instance and clear the auto-shutdown timer.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"POST /rds/extend-timer",
			func(ctx *httpfx.Context) httpfx.Result {
				result, err := appContext.Lifecycle.ExtendTimer(ctx.Request.Context())
				if err != nil {
					return lifecycleError(ctx, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Extend shutdown timer").
		HasDescription("Re-arm the auto-shutdown timer without touching the instance.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"POST /rds/snapshot",
			func(ctx *httpfx.Context) httpfx.Result {
				result, err := appContext.Lifecycle.Snapshot(ctx.Request.Context())
				if err != nil {
					return lifecycleError(ctx, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Create snapshot").
		HasDescription("Create a manual snapshot and prune the oldest beyond the retention bound.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"GET /rds/snapshots",
			func(ctx *httpfx.Context) httpfx.Result {
				snapshots, err := appContext.Lifecycle.Snapshots(ctx.Request.Context())
				if err != nil {
					return lifecycleError(ctx, err)
				}

				return ctx.Results.Json(snapshots)
			},
		).
		HasSummary("List snapshots").
		HasDescription("List available manual snapshots, newest first.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"POST /rds/restore",
			func(ctx *httpfx.Context) httpfx.Result {
				result, err := appContext.Lifecycle.Restore(ctx.Request.Context())
				if err != nil {
					return lifecycleError(ctx, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Restore latest snapshot").
		HasDescription("Restore the most recent snapshot into a fresh instance.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"GET /rds/timer",
			func(ctx *httpfx.Context) httpfx.Result {
				result, err := appContext.Lifecycle.Timer(ctx.Request.Context())
				if err != nil {
					return lifecycleError(ctx, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Shutdown timer").
		HasDescription("Report the pending auto-shutdown timestamp, if one is armed.").
		HasResponse(http.StatusOK)
}

func lifecycleError(ctx *httpfx.Context, err error) httpfx.Result {
	if errors.Is(err, lifecycle.ErrInstanceIDNotConfigured) || errors.Is(err, lifecycle.ErrNoSnapshotAvailable) {
		return errorResult(ctx, http.StatusBadRequest, err)
	}

	return errorResult(ctx, http.StatusInternalServerError, err)
}
