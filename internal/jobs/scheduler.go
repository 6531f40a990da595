package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"coursemarket/internal/config"
	"coursemarket/internal/events"
)

// Scheduler enqueues periodic worker tasks. It does nothing when events are
// not published anywhere.
type Scheduler struct {
	cron      *cron.Cron
	publisher events.Publisher
	specs     config.JobsConfig
	log       zerolog.Logger
}

func NewScheduler(publisher events.Publisher, specs config.JobsConfig, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:      c,
		publisher: publisher,
		specs:     specs,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if s.publisher == nil {
		return nil
	}
	if _, ok := s.publisher.(events.Nop); ok {
		return nil
	}

	if _, err := s.cron.AddFunc(s.specs.SnapshotSpec, s.enqueue(events.TypeSnapshot)); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.specs.DigestSpec, s.enqueue(events.TypeDigest)); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueue(taskType string) func() {
	return func() {
		if err := s.publisher.Publish(context.Background(), events.Event{Type: taskType}); err != nil {
			s.log.Error().Err(err).Str("type", taskType).Msg("enqueue task failed")
			return
		}
		s.log.Debug().Str("type", taskType).Msg("task enqueued")
	}
}
