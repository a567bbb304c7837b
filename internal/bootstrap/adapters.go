package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/ticketgate/internal/adapters/trigger"
	"github.com/target/ticketgate/internal/core"
)

// TriggerConfig contains configuration for the periodic dispatch caller.
type TriggerConfig struct {
	Dispatcher trigger.Dispatcher
	Interval   time.Duration
	Cache      core.CacheRepository
	InstanceID string
	Logger     *slog.Logger
}

// RunTrigger starts the trigger loop and blocks until ctx is cancelled.
func RunTrigger(ctx context.Context, cfg TriggerConfig) error {
	runner, err := trigger.NewRunner(trigger.RunnerOptions{
		Dispatcher: cfg.Dispatcher,
		Interval:   cfg.Interval,
		Logger:     cfg.Logger,
		Cache:      cfg.Cache,
		InstanceID: cfg.InstanceID,
	})
	if err != nil {
		return fmt.Errorf("create trigger runner: %w", err)
	}
	return runner.Run(ctx)
}
