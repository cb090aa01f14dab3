package kolo

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kolofinance/kolo/config"
	redlock "github.com/kolofinance/kolo/internal/lock"
	"github.com/kolofinance/kolo/model"
)

const (
	delinquencyLockKey = "kolo:delinquency:run"
	delinquencyLockTTL = 2 * time.Hour
)

// nextRunAt returns the next occurrence of hour o'clock after now: today if
// the hour has not passed yet, otherwise tomorrow.
func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StartDelinquencyScheduler runs the daily delinquency batch at the configured
// hour until ctx is cancelled. The schedule is recomputed after every run, so
// a run that was missed while the process was down is not replayed; the next
// run recomputes every loan's state from scratch and catches up.
//
// A Redis lock guards each run so a concurrently triggered manual run and the
// scheduled one do not overlap. The lock is best effort: losing it means
// skipping the run, not failing it.
func (k *Kolo) StartDelinquencyScheduler(ctx context.Context) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}

	logrus.Infof("delinquency scheduler started, daily run at %02d:00", conf.Delinquency.RunHour)
	for {
		next := nextRunAt(time.Now(), conf.Delinquency.RunHour)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			logrus.Info("delinquency scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		k.runScheduledDelinquency(ctx)
	}
}

func newDelinquencyLocker(k *Kolo) *redlock.Locker {
	return redlock.NewLocker(k.redis, delinquencyLockKey, model.GenerateUUIDWithSuffix("sched"))
}

// runScheduledDelinquency executes one guarded delinquency run. Errors are
// logged, never propagated; the scheduler loop must survive any single run.
func (k *Kolo) runScheduledDelinquency(ctx context.Context) {
	locker := newDelinquencyLocker(k)
	if err := locker.Lock(ctx, delinquencyLockTTL); err != nil {
		logrus.Warnf("delinquency run skipped, another run holds the lock: %v", err)
		return
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Warnf("could not release delinquency run lock: %v", err)
		}
	}()

	summary, err := k.ProcessAllLoans(ctx)
	if err != nil {
		logrus.Errorf("scheduled delinquency run failed: %v", err)
		return
	}
	if summary.Message != "" {
		logrus.Warnf("scheduled delinquency run: %s", summary.Message)
	}
}
