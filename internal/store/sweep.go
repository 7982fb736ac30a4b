// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the active-expiry sweep once a minute, the way a
// production maintenance job would be scheduled rather than tied to an ad
// hoc ticker interval.
const DefaultSweepSchedule = "@every 1m"

// RunSweep starts a background goroutine that removes already-expired
// entries on schedule, independent of whether they are ever read again.
// It returns once ctx is cancelled; callers should run it in its own
// goroutine.
func (s *Store) RunSweep(ctx context.Context, schedule string, logger *slog.Logger) error {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		removed := s.sweepExpired(time.Now())
		if removed > 0 {
			logger.Debug("active expiry sweep", "removed", removed)
		}
	}); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}
