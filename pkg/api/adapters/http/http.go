package http

import (
	"context"
	"encoding/json"

	"github.com/eser/ajan/httpfx"
	"github.com/eser/ajan/httpfx/middlewares"
	"github.com/eser/ajan/httpfx/modules/healthcheck"
	"github.com/eser/ajan/httpfx/modules/openapi"
	"github.com/eser/ajan/httpfx/modules/profiling"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/appcontext"
)

func Run(
	ctx context.Context,
	appContext *appcontext.AppContext,
) (func(), error) {
	routes := httpfx.NewRouter("/")
	httpService := httpfx.NewHttpService(
		&appContext.Config.Http,
		routes,
		appContext.Metrics,
		appContext.Logger,
	)

	// http middlewares
	routes.Use(middlewares.ErrorHandlerMiddleware())
	routes.Use(middlewares.ResolveAddressMiddleware())
	routes.Use(middlewares.ResponseTimeMiddleware())
	routes.Use(middlewares.CorrelationIdMiddleware())
	routes.Use(middlewares.CorsMiddleware())
	routes.Use(middlewares.MetricsMiddleware(httpService.InnerMetrics))

	// http modules
	healthcheck.RegisterHttpRoutes(routes, &appContext.Config.Http)
	openapi.RegisterHttpRoutes(routes, &appContext.Config.Http)
	profiling.RegisterHttpRoutes(routes, &appContext.Config.Http)

	// http routes
	RegisterHttpRoutesForRds(routes, appContext)       //nolint:contextcheck
	RegisterHttpRoutesForImport(routes, appContext)    //nolint:contextcheck
	RegisterHttpRoutesForQuery(routes, appContext)     //nolint:contextcheck
	RegisterHttpRoutesForLogs(routes, appContext)      //nolint:contextcheck
	RegisterHttpRoutesForBlocklist(routes, appContext) //nolint:contextcheck

	// run
	return httpService.Start(ctx)
}

func errorResult(ctx *httpfx.Context, statusCode int, err error) httpfx.Result {
	body, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
	if marshalErr != nil {
		return ctx.Results.Error(statusCode, []byte(err.Error()))
	}

	return ctx.Results.Error(statusCode, body)
}
