package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/eser/ajan/httpfx"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/appcontext"
)

var errMissingIP = errors.New("ip is required")

func RegisterHttpRoutesForBlocklist( //nolint:funlen
	routes *httpfx.Router,
	appContext *appcontext.AppContext,
) {
	routes.
		Route(
			"GET /blocklist",
			func(ctx *httpfx.Context) httpfx.Result {
				entries, err := appContext.Blocklist.List(ctx.Request.Context())
				if err != nil {
					return errorResult(ctx, http.StatusInternalServerError, err)
				}

				return ctx.Results.Json(entries)
			},
		).
		HasSummary("List blocked IPs").
		HasDescription("List blocklist entries, newest first.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"POST /blocklist",
			func(ctx *httpfx.Context) httpfx.Result {
				var request struct {
					IP     string `json:"ip"`
					Reason string `json:"reason"`
				}

				err := json.NewDecoder(ctx.Request.Body).Decode(&request)
				if err != nil {
					return errorResult(ctx, http.StatusBadRequest, err)
				}

				if request.IP == "" {
					return errorResult(ctx, http.StatusBadRequest, errMissingIP)
				}

				result, err := appContext.Blocklist.Add(ctx.Request.Context(), request.IP, request.Reason)
				if err != nil {
					return errorResult(ctx, http.StatusInternalServerError, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Block an IP").
		HasDescription("Add an IP to the blocklist and republish the edge function.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"DELETE /blocklist/{ip}",
			func(ctx *httpfx.Context) httpfx.Result {
				ipParam := ctx.Request.PathValue("ip")

				ip, err := url.PathUnescape(ipParam)
				if err != nil || ip == "" {
					return errorResult(ctx, http.StatusBadRequest, errMissingIP)
				}

				result, err := appContext.Blocklist.Remove(ctx.Request.Context(), ip)
				if err != nil {
					return errorResult(ctx, http.StatusInternalServerError, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Unblock an IP").
		HasDescription("Remove an IP from the blocklist and republish the edge function.").
		HasResponse(http.StatusOK)
}
