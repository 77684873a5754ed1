package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// NewScheduler registers the periodic reminder and report jobs on a UTC
// cron.  The caller starts and stops it.
func NewScheduler(d *Dispatcher, reminderSpec, reportSpec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	for kind, spec := range map[string]string{
		KindDailyReminders: reminderSpec,
		KindMonthlyReports: reportSpec,
	} {
		if spec == "" {
			continue
		}
		if _, err := c.AddFunc(spec, func() { runScheduled(d, kind) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", kind, spec, err)
		}
		log.Printf("scheduler: %s at %q", kind, spec)
	}
	return c, nil
}

func runScheduled(d *Dispatcher, kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	res, err := d.Submit(ctx, kind, 0, nil)
	if err != nil {
		log.Printf("scheduler: %s failed: %v", kind, err)
		return
	}
	log.Printf("scheduler: %s submitted task=%s async=%t", kind, res.TaskID, res.Async)
}
