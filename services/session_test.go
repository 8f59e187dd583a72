package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pgadwala09/VocabPro-sub001/models"
)

func newTestSession(t *testing.T) (*DebateSession, *TurnEngine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	engine := NewTurnEngine(db)
	return NewDebateSession(db, engine, nil), engine, db
}

func TestSessionInitializeAndState(t *testing.T) {
	session, _, _ := newTestSession(t)

	debate, turn, err := session.Initialize("d1", DebateConfig{Topic: "homework bans", Duration: 90, Rounds: 4})
	require.NoError(t, err)

	assert.Equal(t, "d1", debate.ID)
	assert.Equal(t, "homework bans", debate.Topic)
	assert.Equal(t, 90, debate.TurnDuration)
	assert.Equal(t, 4, debate.Rounds)
	assert.Equal(t, models.DebateStatusActive, debate.Status)
	assert.Equal(t, 1, turn.TurnNumber)

	gotDebate, gotTurn, err := session.GetState("d1")
	require.NoError(t, err)
	assert.Equal(t, debate.ID, gotDebate.ID)
	require.NotNil(t, gotTurn)
	assert.Equal(t, turn.ID, gotTurn.ID)
}

func TestSessionStateUnknownDebate(t *testing.T) {
	session, _, _ := newTestSession(t)

	_, _, err := session.GetState("missing")
	assert.ErrorIs(t, err, ErrDebateNotFound)
}

func TestSessionCompleteCurrentTurnAdvances(t *testing.T) {
	session, _, _ := newTestSession(t)

	_, _, err := session.Initialize("d1", DebateConfig{})
	require.NoError(t, err)

	completed, next, err := session.CompleteCurrentTurn("d1", TurnCompletion{Transcript: "hello"})
	require.NoError(t, err)

	assert.Equal(t, models.TurnStateComplete, completed.State)
	assert.Equal(t, "hello", completed.Transcript)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.TurnNumber)
	assert.Equal(t, models.SpeakerAI, next.Speaker)
	assert.Equal(t, models.TurnStateSpeaking, next.State)
}

func TestSessionCompleteCurrentTurnRetryAfterStoreFailure(t *testing.T) {
	session, _, db := newTestSession(t)

	_, turn, err := session.Initialize("d1", DebateConfig{})
	require.NoError(t, err)

	failNextTurnInsert(t, db)

	_, _, err = session.CompleteCurrentTurn("d1", TurnCompletion{Transcript: "hello"})
	require.Error(t, err)

	// nothing committed: the turn is still the debate's current speaker
	assert.Equal(t, models.TurnStateSpeaking, loadTurn(t, db, turn.ID).State)

	completed, next, err := session.CompleteCurrentTurn("d1", TurnCompletion{Transcript: "hello"})
	require.NoError(t, err)
	assert.Equal(t, models.TurnStateComplete, completed.State)
	assert.Equal(t, 2, next.TurnNumber)
}

func TestSessionStartSpeakingUsesConfiguredDuration(t *testing.T) {
	session, engine, _ := newTestSession(t)

	_, _, err := session.Initialize("d1", DebateConfig{Duration: 45})
	require.NoError(t, err)

	// walk to the next human turn, which is created waiting
	_, _, err = session.CompleteCurrentTurn("d1", TurnCompletion{})
	require.NoError(t, err)
	_, _, err = session.CompleteCurrentTurn("d1", TurnCompletion{})
	require.NoError(t, err)

	waiting, err := engine.GetCurrentTurn("d1")
	require.NoError(t, err)
	require.Equal(t, models.TurnStateWaiting, waiting.State)

	started, err := session.StartSpeaking("d1", 0)
	require.NoError(t, err)
	assert.Equal(t, models.TurnStateSpeaking, started.State)
	assert.InDelta(t, 45, started.EndsAt.Sub(*started.StartedAt).Seconds(), 0.01)
}

func TestSessionPauseResumeEnd(t *testing.T) {
	session, _, _ := newTestSession(t)

	_, _, err := session.Initialize("d1", DebateConfig{})
	require.NoError(t, err)

	debate, err := session.Pause("d1")
	require.NoError(t, err)
	assert.Equal(t, models.DebateStatusPaused, debate.Status)

	// pausing twice is rejected
	_, err = session.Pause("d1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	debate, err = session.Resume("d1")
	require.NoError(t, err)
	assert.Equal(t, models.DebateStatusActive, debate.Status)

	// resuming an active debate is rejected
	_, err = session.Resume("d1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	debate, err = session.End("d1")
	require.NoError(t, err)
	assert.Equal(t, models.DebateStatusEnded, debate.Status)

	// end is terminal
	_, err = session.End("d1")
	assert.ErrorIs(t, err, ErrDebateEnded)
	_, err = session.Pause("d1")
	assert.ErrorIs(t, err, ErrDebateEnded)
	_, err = session.Resume("d1")
	assert.ErrorIs(t, err, ErrDebateEnded)
}

func TestSessionRejectsActionsOnEndedDebate(t *testing.T) {
	session, _, _ := newTestSession(t)

	_, _, err := session.Initialize("d1", DebateConfig{})
	require.NoError(t, err)
	_, err = session.End("d1")
	require.NoError(t, err)

	_, _, err = session.CompleteCurrentTurn("d1", TurnCompletion{})
	assert.ErrorIs(t, err, ErrDebateEnded)

	_, err = session.StartSpeaking("d1", 0)
	assert.ErrorIs(t, err, ErrDebateEnded)

	_, err = session.TriggerAISpeak("d1")
	assert.ErrorIs(t, err, ErrDebateEnded)
}

func TestSessionCanSpeakPassthrough(t *testing.T) {
	session, _, _ := newTestSession(t)

	_, _, err := session.Initialize("d1", DebateConfig{})
	require.NoError(t, err)

	canSpeak, remaining, err := session.CanUserSpeak("d1", "u1")
	require.NoError(t, err)
	assert.True(t, canSpeak)
	assert.Greater(t, remaining, 0.0)

	aiCan, _, err := session.CanAISpeak("d1")
	require.NoError(t, err)
	assert.False(t, aiCan)

	_, _, err = session.CanUserSpeak("missing", "u1")
	assert.ErrorIs(t, err, ErrDebateNotFound)
}

func TestSessionStateWithNoCurrentTurn(t *testing.T) {
	session, engine, _ := newTestSession(t)

	_, turn, err := session.Initialize("d1", DebateConfig{})
	require.NoError(t, err)

	// complete without advancing
	_, err = engine.CompleteTurn(turn.ID, TurnCompletion{})
	require.NoError(t, err)

	debate, current, err := session.GetState("d1")
	require.NoError(t, err)
	assert.NotNil(t, debate)
	assert.Nil(t, current)
}
