package appcontext

import (
	"github.com/eser/ajan"

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
	"github.com/nakomis/nakom-admin/pkg/api/business/blocklist"
	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
	"github.com/nakomis/nakom-admin/pkg/api/business/lifecycle"
	"github.com/nakomis/nakom-admin/pkg/api/business/logmining"
)

type FeatureFlags struct {
	// ImportInvoker selects how the generate stage hands off to the load
	// stage: "lambda" (async function invocation), "queue" (message queue
	// drained by this process) or "local" (in-process goroutine).
	ImportInvoker string `conf:"IMPORT_INVOKER" default:"lambda"`
}

type AppConfig struct {
	Lifecycle lifecycle.Config `conf:"LIFECYCLE"`
	Importing importing.Config `conf:"IMPORTING"`
	LogMining logmining.Config `conf:"LOG_MINING"`
	Blocklist blocklist.Config `conf:"BLOCKLIST"`

	ParamStore     param_store.Config     `conf:"PARAM_STORE"`
	RdsInstance    rds_instance.Config    `conf:"RDS_INSTANCE"`
	Scheduler      scheduler.Config       `conf:"SCHEDULER"`
	DynamoDbStore  dynamodb_store.Config  `conf:"DYNAMODB_STORE"`
	ObjectStore    object_store.Config    `conf:"OBJECT_STORE"`
	LambdaInvoker  lambda_invoker.Config  `conf:"LAMBDA_INVOKER"`
	ImportQueue    import_queue.Config    `conf:"IMPORT_QUEUE"`
	Providers      providers.Config       `conf:"PROVIDERS"`
	AnalyticsDb    analytics_db.Config    `conf:"ANALYTICS_DB"`
	CloudfrontEdge cloudfront_edge.Config `conf:"CLOUDFRONT_EDGE"`

	ajan.BaseConfig

	Features FeatureFlags `conf:"FEATURES"`
}
