// Package scheduler triggers pipeline runs on a fixed interval and on
// demand.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/personaflow/personaflow/app/pipeline"
)

type Scheduler struct {
	orchestrator *pipeline.Orchestrator
	interval     time.Duration
	trigger      chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewScheduler(orchestrator *pipeline.Orchestrator, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		trigger:      make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start launches the run loop. The first run starts immediately so a
// fresh install has content without waiting a full interval.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.run()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.run()
			case <-s.trigger:
				s.run()
			}
		}
	}()

	slog.Info("Scheduler started", "interval", s.interval.String())
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Debug("Scheduler stopped")
}

// Trigger requests a run outside the regular interval. When a trigger
// is already pending the request is coalesced into it.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
		slog.Info("Manual pipeline run requested")
	default:
	}
}

func (s *Scheduler) run() {
	if _, err := s.orchestrator.Run(s.ctx); err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) || errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("Scheduled pipeline run failed", "error", err)
	}
}
