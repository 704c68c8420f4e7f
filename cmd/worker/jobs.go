package main

import (
	"context"
	"sync"
	"time"

	"pharmaledger/internal/infrastructure/lock"
	"pharmaledger/pkg/logger"
)

// job is a periodic task run under a cluster-wide lock.
type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// scheduler runs every job on its own ticker until ctx is cancelled.
type scheduler struct {
	locks lock.Runner
	log   *logger.Logger
	jobs  []job
}

func (s *scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		if j.interval <= 0 {
			s.log.Warnw("job disabled", "job", j.name)
			continue
		}
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			s.loop(ctx, j)
		}(j)
	}
	wg.Wait()
}

func (s *scheduler) loop(ctx context.Context, j job) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.tick(ctx, j)
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("stopping job", "job", j.name)
			return
		case <-ticker.C:
			s.tick(ctx, j)
		}
	}
}

// tick runs the job once. The lock lives for twice the interval so a slow run
// is not picked up by a second worker.
func (s *scheduler) tick(ctx context.Context, j job) {
	ran, err := s.locks.RunExclusive(ctx, j.name, 2*j.interval, j.run)
	if err != nil && ctx.Err() == nil {
		s.log.Errorw("job failed", "job", j.name, "error", err)
		return
	}
	if !ran {
		s.log.Debugw("job held by another worker", "job", j.name)
	}
}
