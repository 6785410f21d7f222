package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/godesk-io/godesk-ce/internal/escalation"
	"github.com/godesk-io/godesk-ce/internal/metrics"
)

// SweepTask runs the escalation sweep on a fixed interval.
type SweepTask struct {
	sweeper  *escalation.Sweeper
	interval time.Duration
}

// NewSweepTask creates the sweep task. Intervals below a minute are rounded
// up; cron's granularity is one minute.
func NewSweepTask(sweeper *escalation.Sweeper, interval time.Duration) *SweepTask {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &SweepTask{sweeper: sweeper, interval: interval}
}

func (t *SweepTask) Name() string { return "escalation-sweep" }

func (t *SweepTask) Schedule() string {
	return fmt.Sprintf("@every %s", t.interval)
}

func (t *SweepTask) Timeout() time.Duration {
	// A sweep must finish before the next one starts.
	return t.interval
}

func (t *SweepTask) Run(ctx context.Context) error {
	start := time.Now()
	stats, err := t.sweeper.Sweep(ctx, time.Now().UTC())
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	metrics.SweepTickets.Add(float64(stats.Tickets))
	metrics.SweepResults.WithLabelValues("executed").Add(float64(stats.Executed))
	metrics.SweepResults.WithLabelValues("skipped").Add(float64(stats.Skipped))
	metrics.SweepResults.WithLabelValues("failed").Add(float64(stats.Failed))
	metrics.SweepResults.WithLabelValues("not_triggered").Add(float64(stats.NotTriggered))
	return err
}
