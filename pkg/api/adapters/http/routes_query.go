package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/eser/ajan/httpfx"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/appcontext"
	"github.com/nakomis/nakom-admin/pkg/api/business/analytics"
)

func RegisterHttpRoutesForQuery(
	routes *httpfx.Router,
	appContext *appcontext.AppContext,
) {
	routes.
		Route(
			"POST /query/{type}",
			func(ctx *httpfx.Context) httpfx.Result {
				queryType := ctx.Request.PathValue("type")

				// An empty body means default parameters.
				var params analytics.QueryParams

				err := json.NewDecoder(ctx.Request.Body).Decode(&params)
				if err != nil && !errors.Is(err, io.EOF) {
					return errorResult(ctx, http.StatusBadRequest, err)
				}

				rows, err := appContext.Analytics.Query(ctx.Request.Context(), queryType, params)
				if err != nil {
					if errors.Is(err, analytics.ErrUnknownQueryType) {
						return errorResult(ctx, http.StatusBadRequest, err)
					}

					return errorResult(ctx, http.StatusInternalServerError, err)
				}

				return ctx.Results.Json(rows)
			},
		).
		HasSummary("Run analytical query").
		HasDescription("Run one of the predefined analytical queries over imported chat logs.").
		HasResponse(http.StatusOK)
}
