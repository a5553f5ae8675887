package job

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper runs housekeeping functions on a cron schedule.
type Sweeper struct {
	cron     *cron.Cron
	schedule string
	log      *logrus.Logger
}

func NewSweeper(schedule string, log *logrus.Logger) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		schedule: schedule,
		log:      log,
	}
}

// Add registers fn under the sweeper's schedule. An invalid schedule is
// reported here, before Start.
func (s *Sweeper) Add(name string, fn func() (int, error)) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		entry := s.log.WithField("sweep", name)
		n, err := fn()
		if err != nil {
			entry.WithError(err).Warn("sweep failed")
			return
		}
		if n > 0 {
			entry.WithField("removed", n).Info("sweep finished")
		}
	})
	return err
}

func (s *Sweeper) Start() {
	s.log.WithField("schedule", s.schedule).Info("sweeper started")
	s.cron.Start()
}

// Stop halts the schedule. The returned context is done once running
// sweeps have returned.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}
