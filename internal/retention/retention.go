package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"hoaportal/pkg/config"
	"hoaportal/pkg/logger"
	"hoaportal/pkg/store"
	"hoaportal/pkg/telemetry"
)

// Start launches the expired-session purge scheduler if enabled. The
// returned cancel func stops it.
func Start(ctx context.Context, cfg *config.Config) (context.CancelFunc, error) {
	ret := cfg.Retention
	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = config.DefaultRetentionCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", ret.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "dry_run", ret.DryRun)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, ret.DryRun)
	return cancel, nil
}

// RunOnce purges sessions whose refresh window has fully passed.
// Exposed for admin triggers and tests.
func RunOnce(dryRun bool) (int, error) {
	n, err := store.PurgeSessions(time.Now().UTC().UnixNano(), dryRun)
	if err != nil {
		return 0, err
	}
	if dryRun {
		logger.Info("retention_dry_run", "would_purge", n)
		return n, nil
	}
	if n > 0 {
		telemetry.SessionsPurgedTotal.Add(float64(n))
	}
	logger.Info("retention_run_complete", "purged", n)
	return n, nil
}

// runScheduler computes the next cron tick with gronx and sleeps until
// then, looping until the context is cancelled.
func runScheduler(ctx context.Context, cronExpr string, dryRun bool) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if _, err := RunOnce(dryRun); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}
