package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const sweepTimeout = 30 * time.Second

// IdleCloser closes sessions that have been idle for longer than olderThan.
type IdleCloser interface {
	CloseIdle(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SessionSweepJob periodically closes idle sessions.
type SessionSweepJob struct {
	closer   IdleCloser
	idleAge  time.Duration
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSessionSweepJob(closer IdleCloser, idleAge, interval time.Duration) *SessionSweepJob {
	return &SessionSweepJob{
		closer:   closer,
		idleAge:  idleAge,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *SessionSweepJob) Start() {
	j.wg.Add(1)
	go j.run()
	log.Info().
		Dur("interval", j.interval).
		Dur("idleAge", j.idleAge).
		Msg("session sweep job started")
}

// Stop waits for an in-flight sweep to finish.
func (j *SessionSweepJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.done)
		j.wg.Wait()
		log.Info().Msg("session sweep job stopped")
	})
}

func (j *SessionSweepJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *SessionSweepJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	count, err := j.closer.CloseIdle(ctx, j.idleAge)
	if err != nil {
		log.Error().Err(err).Msg("failed to close idle sessions")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("closed idle sessions")
	}
}
