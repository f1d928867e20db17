package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// schedulerService periodically publishes scheduled knowledge articles
type schedulerService struct {
	knowledge KnowledgeService
	interval  time.Duration
	log       zerolog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	running   bool
	mu        sync.Mutex
}

func newSchedulerService(knowledge KnowledgeService, interval time.Duration, log zerolog.Logger) *schedulerService {
	return &schedulerService{
		knowledge: knowledge,
		interval:  interval,
		log:       log.With().Str("service", "scheduler").Logger(),
	}
}

// StartProcessor blocks, publishing due articles every interval until ctx
// is cancelled or StopProcessor is called. A zero interval disables it.
func (s *schedulerService) StartProcessor(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("Scheduled publishing disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()
	defer close(done)
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.running = false
		}
		s.mu.Unlock()
	}()

	s.log.Info().Dur("interval", s.interval).Msg("Scheduled publishing started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Scheduled publishing stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// StopProcessor stops the processor and waits for the current run to finish
func (s *schedulerService) StopProcessor() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.running = false
	s.mu.Unlock()

	<-done
	s.log.Info().Msg("Scheduled publishing stopped")
}

// RunOnce publishes every article whose scheduled time has passed
func (s *schedulerService) RunOnce(ctx context.Context) (int, error) {
	return s.knowledge.PublishScheduled(ctx)
}

func (s *schedulerService) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Scheduled publish panicked - recovered")
		}
	}()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Scheduled publish failed")
		return
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("Published scheduled articles")
	}
}
