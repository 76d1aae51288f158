package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/scheduler/types"
	"github.com/eser/ajan/logfx"

	"github.com/nakomis/nakom-admin/pkg/api/business/lifecycle"
)

var _ lifecycle.ShutdownScheduler = (*Scheduler)(nil)

// Scheduler manages the single named one-shot schedule that fires the
// stop action. The schedule deletes itself after completion, so a Disarm
// racing the firing sees not-found and reports success.
type Scheduler struct {
	Config *Config

	logger *logfx.Logger
	client *scheduler.Client
}

func New(config *Config, logger *logfx.Logger) *Scheduler {
	return &Scheduler{Config: config, logger: logger}
}

func (s *Scheduler) Init(ctx context.Context) error {
	var cfgOptions []func(*config.LoadOptions) error

	if s.Config.ConnectionProfile != "" {
		cfgOptions = append(cfgOptions, config.WithSharedConfigProfile(s.Config.ConnectionProfile))
	}

	if s.Config.ConnectionRegion != "" {
		cfgOptions = append(cfgOptions, config.WithRegion(s.Config.ConnectionRegion))
	}

	sdkConfig, err := config.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		s.logger.ErrorContext(ctx, "[Scheduler] unable to load SDK config", "module", "scheduler", "error", err)

		return fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	s.client = scheduler.NewFromConfig(sdkConfig)

	s.logger.InfoContext(ctx, "[Scheduler] Scheduler client initialized", "module", "scheduler", "scheduleName", s.Config.ScheduleName)

	return nil
}

func (s *Scheduler) Arm(ctx context.Context, at time.Time) error {
	s.logger.DebugContext(ctx, "[Scheduler] Creating one-shot schedule", "module", "scheduler", "scheduleName", s.Config.ScheduleName, "at", at)

	_, err := s.client.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
		Name:      aws.String(s.Config.ScheduleName),
		GroupName: aws.String(s.Config.ScheduleGroup),
		// One-shot expression; the scheduler treats it as UTC.
		ScheduleExpression: aws.String(fmt.Sprintf("at(%s)", at.UTC().Format("2006-01-02T15:04:05"))),
		FlexibleTimeWindow: &types.FlexibleTimeWindow{
			Mode: types.FlexibleTimeWindowModeOff,
		},
		Target: &types.Target{
			Arn:     aws.String(s.Config.TargetArn),
			RoleArn: aws.String(s.Config.RoleArn),
			Input:   aws.String(s.Config.TargetInput),
		},
		ActionAfterCompletion: types.ActionAfterCompletionDelete,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "[Scheduler] Failed to create schedule", "module", "scheduler", "scheduleName", s.Config.ScheduleName, "error", err)

		return fmt.Errorf("scheduler.CreateSchedule failed for %s: %w", s.Config.ScheduleName, err)
	}

	return nil
}

func (s *Scheduler) Disarm(ctx context.Context) error {
	s.logger.DebugContext(ctx, "[Scheduler] Deleting schedule", "module", "scheduler", "scheduleName", s.Config.ScheduleName)

	_, err := s.client.DeleteSchedule(ctx, &scheduler.DeleteScheduleInput{
		Name:      aws.String(s.Config.ScheduleName),
		GroupName: aws.String(s.Config.ScheduleGroup),
	})
	if err != nil {
		var notFoundEx *types.ResourceNotFoundException

		if errors.As(err, &notFoundEx) {
			return nil
		}

		s.logger.ErrorContext(ctx, "[Scheduler] Failed to delete schedule", "module", "scheduler", "scheduleName", s.Config.ScheduleName, "error", err)

		return fmt.Errorf("scheduler.DeleteSchedule failed for %s: %w", s.Config.ScheduleName, err)
	}

	return nil
}
