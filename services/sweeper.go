package services

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSweepInterval is how often overdue turns are reclaimed.
const DefaultSweepInterval = 10 * time.Second

// Sweeper periodically invokes the engine's overdue-turn sweep. It is the
// system's forward-progress guarantee: a client that disconnects mid-turn
// stalls a debate for at most one interval.
type Sweeper struct {
	engine   *TurnEngine
	interval time.Duration
	log      *logrus.Entry
}

func NewSweeper(engine *TurnEngine, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		engine:   engine,
		interval: interval,
		log:      logrus.WithField("component", "sweeper"),
	}
}

// SweepIntervalFromEnv reads SWEEP_INTERVAL_SECONDS, falling back to the
// default on absence or garbage.
func SweepIntervalFromEnv() time.Duration {
	raw := os.Getenv("SWEEP_INTERVAL_SECONDS")
	if raw == "" {
		return DefaultSweepInterval
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return DefaultSweepInterval
	}
	return time.Duration(secs) * time.Second
}

// Run loops until ctx is cancelled. Store errors are logged and the next
// tick re-queries; overdue turns stay overdue until a sweep succeeds.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.interval.String()).Info("sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick performs one sweep pass. Exposed for the manual trigger endpoint.
func (s *Sweeper) Tick() int {
	advanced, err := s.engine.SweepOverdueTurns()
	if err != nil {
		s.log.WithError(err).Error("sweep failed")
		return 0
	}
	if advanced > 0 {
		s.log.WithField("advanced", advanced).Info("sweep advanced turns")
	}
	return advanced
}
