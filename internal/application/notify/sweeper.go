package notify

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the sweeper once a minute.
const DefaultSweepSchedule = "@every 1m"

// StartSweeper schedules s.Sweep on schedule and starts the cron runner.
// Callers stop it with the returned Cron's Stop.
// PRE: schedule is a cron spec or descriptor such as "@every 1m"
// POST: the runner is started
func StartSweeper(s *Service, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if n := s.Sweep(); n > 0 {
			slog.Info("notifications_swept", "removed", n)
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule notification sweeper: %w", err)
	}
	c.Start()
	return c, nil
}
