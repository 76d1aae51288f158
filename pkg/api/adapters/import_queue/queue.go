package import_queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/importing"
)

var _ importing.ExecuteInvoker = (*Queue)(nil)

// Queue is the queue-backed hand-off between the generate and execute
// stages, for deployments without a directly-invokable load function. A
// drain loop receives payloads and runs the load stage in-process.
type Queue struct {
	Config *Config

	logger   *logfx.Logger
	client   *sqs.Client
	queueURL string
}

// PayloadWithReceipt pairs a staged-batch payload with the receipt handle
// needed to delete its message after a successful load.
type PayloadWithReceipt struct {
	Payload       importing.ExecutePayload
	ReceiptHandle string
}

func New(config *Config, logger *logfx.Logger) *Queue {
	return &Queue{Config: config, logger: logger}
}

func (q *Queue) Init(ctx context.Context) error {
	var cfgOptions []func(*config.LoadOptions) error
	var sqsClientOptions []func(*sqs.Options)

	if q.Config.ConnectionEndpoint != "" {
		customResolver := NewEndpointResolver(q.Config.ConnectionEndpoint)
		sqsClientOptions = append(sqsClientOptions, sqs.WithEndpointResolverV2(customResolver))
	}

	if q.Config.ConnectionProfile != "" {
		cfgOptions = append(cfgOptions, config.WithSharedConfigProfile(q.Config.ConnectionProfile))
	}

	if q.Config.ConnectionRegion != "" {
		cfgOptions = append(cfgOptions, config.WithRegion(q.Config.ConnectionRegion))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		q.logger.ErrorContext(ctx, "[ImportQueue] unable to load SDK config", "module", "import_queue", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	q.client = sqs.NewFromConfig(cfg, sqsClientOptions...)

	queueURL, err := q.createQueueIfNotExists(ctx, q.Config.QueueName)
	if err != nil {
		q.logger.ErrorContext(ctx, "[ImportQueue] Failed to ensure queue exists during init", "module", "import_queue", "queueName", q.Config.QueueName, "error", err)

		return fmt.Errorf("failed to ensure queue %s exists: %w", q.Config.QueueName, err)
	}

	q.queueURL = *queueURL

	q.logger.InfoContext(ctx, "[ImportQueue] Import queue initialized", "module", "import_queue", "region", q.Config.ConnectionRegion, "endpoint", q.Config.ConnectionEndpoint, "queueURL", q.queueURL)

	return nil
}

func (q *Queue) getQueueURL(ctx context.Context, queueName string) (*string, error) {
	queueURLOut, err := q.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queueName),
	})

	if err != nil {
		if strings.HasSuffix(err.Error(), "AWS.SimpleQueueService.NonExistentQueue: The specified queue does not exist.") {
			return nil, nil
		}

		return nil, err
	}

	return queueURLOut.QueueUrl, nil
}

func (q *Queue) createQueueIfNotExists(ctx context.Context, queueName string) (*string, error) {
	queueURL, err := q.getQueueURL(ctx, queueName)
	if err != nil {
		return nil, err
	}

	if queueURL != nil {
		return queueURL, nil
	}

	q.logger.DebugContext(ctx, "[ImportQueue] Queue not found, creating", "module", "import_queue", "queueName", queueName)

	createOut, err := q.client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(queueName),
	})
	if err != nil {
		return nil, err
	}

	q.logger.InfoContext(ctx, "[ImportQueue] Queue created", "module", "import_queue", "queueUrl", *createOut.QueueUrl)

	return createOut.QueueUrl, nil
}

// InvokeExecute enqueues a staged-batch payload for the drain loop.
func (q *Queue) InvokeExecute(ctx context.Context, payload importing.ExecutePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal execute payload: %w", err)
	}

	sendOut, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		q.logger.ErrorContext(ctx, "[ImportQueue] Failed to enqueue execute payload", "module", "import_queue", "error", err)

		return fmt.Errorf("sqs.SendMessage failed: %w", err)
	}

	q.logger.InfoContext(ctx, "[ImportQueue] Execute payload enqueued", "module", "import_queue", "messageId", *sendOut.MessageId, "stagingKey", payload.StagingKey)

	return nil
}

// ReceivePayloads long-polls for staged-batch payloads.
func (q *Queue) ReceivePayloads(ctx context.Context) ([]PayloadWithReceipt, error) {
	receiveOut, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: q.Config.MaxNumberOfMessages,
		WaitTimeSeconds:     q.Config.WaitTimeSeconds,
		VisibilityTimeout:   q.Config.VisibilityTimeout,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, nil
		}

		q.logger.ErrorContext(ctx, "[ImportQueue] ReceivePayloads failed", "module", "import_queue", "error", err)

		return nil, fmt.Errorf("sqs.ReceiveMessage failed: %w", err)
	}

	payloads := make([]PayloadWithReceipt, 0, len(receiveOut.Messages))

	for _, message := range receiveOut.Messages {
		var payload importing.ExecutePayload

		err = json.Unmarshal([]byte(*message.Body), &payload)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal execute payload: %w", err)
		}

		payloads = append(payloads, PayloadWithReceipt{
			Payload:       payload,
			ReceiptHandle: *message.ReceiptHandle,
		})
	}

	return payloads, nil
}

func (q *Queue) DeletePayload(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		q.logger.ErrorContext(ctx, "[ImportQueue] DeletePayload failed", "module", "import_queue", "error", err)

		return fmt.Errorf("sqs.DeleteMessage failed: %w", err)
	}

	return nil
}
