package retention

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler runs the purge on a recurring cron schedule. Failures are
// logged and retried on the next tick; they never surface to callers.
type Scheduler struct {
	cron *cron.Cron
}

// SchedulerOpts holds parameters for creating a Scheduler.
type SchedulerOpts struct {
	DB       *gorm.DB
	Schedule string // 5-field cron expression
	Days     int    // retention window in days past closure
}

// NewScheduler validates the schedule and prepares the purge job. Call
// Start to begin ticking.
func NewScheduler(opts SchedulerOpts) (*Scheduler, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("retention: db is required")
	}
	if opts.Days <= 0 {
		return nil, fmt.Errorf("retention: days must be positive")
	}
	if _, err := cronParser.Parse(opts.Schedule); err != nil {
		return nil, fmt.Errorf("retention: parse schedule %q: %w", opts.Schedule, err)
	}

	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(opts.Schedule, func() {
		purged, err := PurgeClosedBefore(opts.DB, Cutoff(time.Now(), opts.Days))
		if err != nil {
			log.Printf("retention: purge failed, retrying next run: %v", err)
			return
		}
		if purged > 0 {
			log.Printf("retention: purged %d closed sessions older than %d days", purged, opts.Days)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("retention: schedule job: %w", err)
	}
	return &Scheduler{cron: c}, nil
}

// Start begins running the purge on schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule, waiting for a running purge to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
