package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgadwala09/VocabPro-sub001/models"
)

func TestSweeperTickAdvancesOverdueTurns(t *testing.T) {
	engine := NewTurnEngine(newTestDB(t))
	sweeper := NewSweeper(engine, time.Minute)

	turn, err := engine.InitializeDebate("d1", DebateConfig{Duration: 5})
	require.NoError(t, err)
	backdate(t, engine.db, turn.ID)

	assert.Equal(t, 1, sweeper.Tick())
	assert.Equal(t, models.TurnStateSkipped, loadTurn(t, engine.db, turn.ID).State)

	// nothing left to reclaim
	assert.Zero(t, sweeper.Tick())
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	engine := NewTurnEngine(newTestDB(t))
	sweeper := NewSweeper(engine, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	turn, err := engine.InitializeDebate("d1", DebateConfig{Duration: 5})
	require.NoError(t, err)
	backdate(t, engine.db, turn.ID)

	// within a few intervals the background loop reclaims the turn
	require.Eventually(t, func() bool {
		return loadTurn(t, engine.db, turn.ID).State == models.TurnStateSkipped
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestNewSweeperDefaultsInterval(t *testing.T) {
	sweeper := NewSweeper(NewTurnEngine(newTestDB(t)), 0)
	assert.Equal(t, DefaultSweepInterval, sweeper.interval)
}

func TestSweepIntervalFromEnv(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL_SECONDS", "3")
	assert.Equal(t, 3*time.Second, SweepIntervalFromEnv())

	t.Setenv("SWEEP_INTERVAL_SECONDS", "garbage")
	assert.Equal(t, DefaultSweepInterval, SweepIntervalFromEnv())

	t.Setenv("SWEEP_INTERVAL_SECONDS", "")
	assert.Equal(t, DefaultSweepInterval, SweepIntervalFromEnv())
}
