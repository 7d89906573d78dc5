package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/moabank/counsel/internal/models"
	"gorm.io/gorm"
)

// DefaultWatchInterval is how often the queue depth is sampled.
const DefaultWatchInterval = time.Minute

// QueueWatcher samples the waiting-queue depth and posts an alert when it
// reaches the threshold. It alerts once per breach: no repeat until the
// depth has dropped below the threshold again.
type QueueWatcher struct {
	db        *gorm.DB
	notifier  Notifier
	threshold int
	interval  time.Duration
	breached  bool
}

// WatcherOpts holds parameters for creating a QueueWatcher.
type WatcherOpts struct {
	DB        *gorm.DB
	Notifier  Notifier
	Threshold int
	Interval  time.Duration
}

// NewQueueWatcher validates options and returns a watcher. Call Run to
// start sampling.
func NewQueueWatcher(opts WatcherOpts) (*QueueWatcher, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("notify: db is required")
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("notify: notifier is required")
	}
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("notify: threshold must be positive")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultWatchInterval
	}
	return &QueueWatcher{
		db:        opts.DB,
		notifier:  opts.Notifier,
		threshold: opts.Threshold,
		interval:  opts.Interval,
	}, nil
}

// Run samples until ctx is cancelled. Sampling errors are logged and the
// next tick retries.
func (w *QueueWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.check(); err != nil {
				log.Printf("notify: queue check: %v", err)
			}
		}
	}
}

// check samples the depth once and posts if a fresh breach is observed.
func (w *QueueWatcher) check() error {
	var depth int64
	if err := w.db.Model(&models.ChatSession{}).
		Where("status = ?", models.SessionWaiting).
		Count(&depth).Error; err != nil {
		return fmt.Errorf("count waiting: %w", err)
	}

	if depth < int64(w.threshold) {
		w.breached = false
		return nil
	}
	if w.breached {
		return nil
	}
	text := fmt.Sprintf("support queue depth is %d (threshold %d), consultants needed", depth, w.threshold)
	if err := w.notifier.Post(text); err != nil {
		// Leave breached unset so the next tick retries the alert.
		return err
	}
	w.breached = true
	return nil
}
