package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser accepts standard 5-field expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseCron validates a 5-field cron expression.
func ParseCron(expr string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("reminder: cron %q: %w", expr, err)
	}
	return sched, nil
}

// NextRun returns the next fire time after now, evaluated as wall-clock time
// in loc so "0 7 * * *" means 07:00 in the reference zone.
func NextRun(sched cron.Schedule, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return sched.Next(now.In(loc))
}

// Trigger fires Dispatcher.Run on a cron schedule until its context ends.
type Trigger struct {
	Dispatcher *Dispatcher
	Schedule   cron.Schedule
	Location   *time.Location
}

// Run blocks until ctx is cancelled. A failed run is logged and the next
// fire time is still honoured.
func (t *Trigger) Run(ctx context.Context) {
	log := t.Dispatcher.logger()
	timer := time.NewTimer(t.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			sum, err := t.Dispatcher.Run(ctx, false)
			if err != nil {
				log.Error("scheduled reminder run failed", zap.Error(err), zap.Int("sent", sum.Sent))
			}
			timer.Reset(t.untilNext())
		}
	}
}

func (t *Trigger) untilNext() time.Duration {
	now := t.Dispatcher.now()
	d := NextRun(t.Schedule, now, t.Location).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
