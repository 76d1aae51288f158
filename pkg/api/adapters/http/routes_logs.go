package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/eser/ajan/httpfx"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/appcontext"
)

func RegisterHttpRoutesForLogs(
	routes *httpfx.Router,
	appContext *appcontext.AppContext,
) {
	routes.
		Route(
			"POST /logs/mine",
			func(ctx *httpfx.Context) httpfx.Result {
				var request struct {
					Days int `json:"days"`
				}

				err := json.NewDecoder(ctx.Request.Body).Decode(&request)
				if err != nil && !errors.Is(err, io.EOF) {
					return errorResult(ctx, http.StatusBadRequest, err)
				}

				result, err := appContext.LogMining.Mine(ctx.Request.Context(), request.Days)
				if err != nil {
					return errorResult(ctx, http.StatusInternalServerError, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Mine access logs").
		HasDescription("Scan CDN access logs for scanner and high-volume IPs.").
		HasResponse(http.StatusOK)
}
