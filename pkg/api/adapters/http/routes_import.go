package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eser/ajan/httpfx"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/appcontext"
	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
)

func RegisterHttpRoutesForImport(
	routes *httpfx.Router,
	appContext *appcontext.AppContext,
) {
	routes.
		Route(
			"POST /import/generate",
			func(ctx *httpfx.Context) httpfx.Result {
				result, err := appContext.Importing.Generate(ctx.Request.Context())
				if err != nil {
					if errors.Is(err, importing.ErrCursorNotInitialized) {
						return errorResult(ctx, http.StatusBadRequest, err)
					}

					return errorResult(ctx, http.StatusInternalServerError, err)
				}

				// An empty delta stages nothing and leaves the cursor alone.
				if result == nil {
					return ctx.Results.Json(map[string]int{"imported": 0})
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Generate import batch").
		HasDescription("Embed source records past the cursor, stage them and queue the load stage.").
		HasResponse(http.StatusOK)

	routes.
		Route(
			"POST /import/execute",
			func(ctx *httpfx.Context) httpfx.Result {
				var payload importing.ExecutePayload

				err := json.NewDecoder(ctx.Request.Body).Decode(&payload)
				if err != nil {
					return errorResult(ctx, http.StatusBadRequest, err)
				}

				result, err := appContext.Importing.Execute(ctx.Request.Context(), payload)
				if err != nil {
					return errorResult(ctx, http.StatusInternalServerError, err)
				}

				return ctx.Results.Json(result)
			},
		).
		HasSummary("Execute import batch").
		HasDescription("Load a staged batch into the analytics store; safe to replay.").
		HasResponse(http.StatusOK)
}
