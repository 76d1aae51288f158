package appcontext

import (
	"context"

	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
)

var _ importing.ExecuteInvoker = (*localExecuteInvoker)(nil)

// localExecuteInvoker runs the load stage in-process instead of handing it
// to a deployed function or a queue. Useful for development and single-node
// deployments. The execute callback is wired after service construction.
type localExecuteInvoker struct {
	logger  *logfx.Logger
	execute func(ctx context.Context, payload importing.ExecutePayload) (*importing.ExecuteResult, error)
}

func (l *localExecuteInvoker) InvokeExecute(ctx context.Context, payload importing.ExecutePayload) error {
	go func() {
		// Detached from the request context; the load stage outlives the
		// generate request that queued it.
		result, err := l.execute(context.WithoutCancel(ctx), payload)
		if err != nil {
			l.logger.Error("[Importing] Local load stage failed", "module", "importing", "stagingKey", payload.StagingKey, "error", err)

			return
		}

		l.logger.Info("[Importing] Local load stage complete", "module", "importing", "stagingKey", payload.StagingKey, "inserted", result.Inserted)
	}()

	return nil
}
