package appcontext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/eser/ajan/configfx"
	"github.com/eser/ajan/logfx"
	"github.com/eser/ajan/metricsfx"

	"github.com/nakomis/nakom-admin/pkg/api/adapters/analytics_db"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/cloudfront_edge"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/dynamodb_store"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/import_queue"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/lambda_invoker"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/object_store"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/param_store"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/providers"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/rds_instance"
	"github.com/nakomis/nakom-admin/pkg/api/adapters/scheduler"
	"github.com/nakomis/nakom-admin/pkg/api/business/analytics"
	"github.com/nakomis/nakom-admin/pkg/api/business/blocklist"
	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
	"github.com/nakomis/nakom-admin/pkg/api/business/lifecycle"
	"github.com/nakomis/nakom-admin/pkg/api/business/logmining"
)

var (
	ErrInitFailed         = errors.New("failed to initialize app context")
	ErrUnknownInvokerMode = errors.New("unknown import invoker mode")
)

type AppContext struct {
	Config  *AppConfig
	Logger  *logfx.Logger
	Metrics *metricsfx.MetricsProvider

	ParamStore     *param_store.Store
	RdsInstance    *rds_instance.Client
	Scheduler      *scheduler.Scheduler
	DynamoDbStore  *dynamodb_store.Store
	ObjectStore    *object_store.Store
	LambdaInvoker  *lambda_invoker.Invoker
	ImportQueue    *import_queue.Queue
	Embedder       providers.Embedder
	AnalyticsDb    *analytics_db.AnalyticsDB
	CloudfrontEdge *cloudfront_edge.Deployer

	Lifecycle *lifecycle.Service
	Importing *importing.Service
	Analytics *analytics.Service
	LogMining *logmining.Service
	Blocklist *blocklist.Service
}

func NewAppContext(ctx context.Context) (*AppContext, error) {
	appContext := &AppContext{} //nolint:exhaustruct

	// config
	cl := configfx.NewConfigManager()

	appContext.Config = &AppConfig{} //nolint:exhaustruct

	err := cl.LoadDefaults(appContext.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	// logger
	appContext.Logger, err = logfx.NewLoggerAsDefault(os.Stdout, &appContext.Config.Log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	// metrics
	appContext.Metrics = metricsfx.NewMetricsProvider()

	err = appContext.Metrics.RegisterNativeCollectors()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	// adapters
	appContext.ParamStore = param_store.New(&appContext.Config.ParamStore, appContext.Logger)
	appContext.RdsInstance = rds_instance.New(&appContext.Config.RdsInstance, appContext.Logger)
	appContext.Scheduler = scheduler.New(&appContext.Config.Scheduler, appContext.Logger)
	appContext.DynamoDbStore = dynamodb_store.New(&appContext.Config.DynamoDbStore, appContext.Logger)
	appContext.ObjectStore = object_store.New(&appContext.Config.ObjectStore, appContext.Logger)
	appContext.LambdaInvoker = lambda_invoker.New(&appContext.Config.LambdaInvoker, appContext.Logger)
	appContext.ImportQueue = import_queue.New(&appContext.Config.ImportQueue, appContext.Logger)
	appContext.AnalyticsDb = analytics_db.New(&appContext.Config.AnalyticsDb, appContext.Logger)
	appContext.CloudfrontEdge = cloudfront_edge.New(&appContext.Config.CloudfrontEdge, appContext.Logger)

	appContext.Embedder, err = providers.NewFromConfig(&appContext.Config.Providers, appContext.Logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	invoker, err := appContext.importInvoker()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	// services
	appContext.Lifecycle = lifecycle.NewService(
		&appContext.Config.Lifecycle,
		appContext.Logger,
		appContext.ParamStore,
		appContext.RdsInstance,
		appContext.Scheduler,
	)
	appContext.Importing = importing.NewService(
		&appContext.Config.Importing,
		appContext.Logger,
		appContext.ParamStore,
		appContext.DynamoDbStore,
		appContext.Embedder,
		appContext.ObjectStore,
		invoker,
		appContext.AnalyticsDb,
	)
	appContext.Analytics = analytics.NewService(appContext.Logger, appContext.AnalyticsDb)
	appContext.LogMining = logmining.NewService(&appContext.Config.LogMining, appContext.Logger, appContext.ObjectStore)
	appContext.Blocklist = blocklist.NewService(
		&appContext.Config.Blocklist,
		appContext.Logger,
		appContext.ParamStore,
		appContext.CloudfrontEdge,
	)

	if localInvoker, ok := invoker.(*localExecuteInvoker); ok {
		localInvoker.execute = appContext.Importing.Execute
	}

	return appContext, nil
}

func (a *AppContext) importInvoker() (importing.ExecuteInvoker, error) {
	switch a.Config.Features.ImportInvoker {
	case "lambda":
		return a.LambdaInvoker, nil
	case "queue":
		return a.ImportQueue, nil
	case "local":
		return &localExecuteInvoker{logger: a.Logger}, nil //nolint:exhaustruct
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownInvokerMode, a.Config.Features.ImportInvoker)
	}
}

func (a *AppContext) Run(ctx context.Context) error {
	a.Logger.InfoContext(
		ctx,
		"Starting application layer",
		slog.String("name", a.Config.AppName),
		slog.String("environment", a.Config.AppEnv),
		slog.Any("features", a.Config.Features),
	)

	inits := []func(context.Context) error{
		a.ParamStore.Init,
		a.RdsInstance.Init,
		a.Scheduler.Init,
		a.DynamoDbStore.Init,
		a.ObjectStore.Init,
		a.AnalyticsDb.Init,
		a.CloudfrontEdge.Init,
	}

	if initer, ok := a.Embedder.(providers.Initer); ok {
		inits = append(inits, initer.Init)
	}

	switch a.Config.Features.ImportInvoker {
	case "lambda":
		inits = append(inits, a.LambdaInvoker.Init)
	case "queue":
		inits = append(inits, a.ImportQueue.Init)
	}

	for _, init := range inits {
		err := init(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInitFailed, err)
		}
	}

	if a.Config.Features.ImportInvoker == "queue" {
		go a.drainImportQueue(ctx)
	}

	return nil
}

// drainImportQueue long-polls the import queue and runs the load stage for
// each staged batch. Failed payloads stay on the queue and surface again
// after the visibility timeout.
func (a *AppContext) drainImportQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("Shutting down import queue processing")

			return
		default:
			payloads, err := a.ImportQueue.ReceivePayloads(ctx)
			if err != nil {
				a.Logger.ErrorContext(ctx, "Failed to receive import payloads", "error", err)

				continue
			}

			for _, payload := range payloads {
				_, err := a.Importing.Execute(ctx, payload.Payload)
				if err != nil {
					a.Logger.ErrorContext(ctx, "Failed to execute import batch", "stagingKey", payload.Payload.StagingKey, "error", err)

					continue
				}

				err = a.ImportQueue.DeletePayload(ctx, payload.ReceiptHandle)
				if err != nil {
					a.Logger.ErrorContext(ctx, "Failed to delete import payload", "error", err)
				}
			}
		}
	}
}
