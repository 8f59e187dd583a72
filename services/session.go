package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pgadwala09/VocabPro-sub001/cache"
	"github.com/pgadwala09/VocabPro-sub001/models"
)

// DebateSession is the per-debate orchestration layer consumed by the HTTP
// handlers. It validates the debate exists, translates pause/resume/end into
// status flips, and otherwise proxies the Turn Engine. It holds no state of
// its own.
type DebateSession struct {
	db      *gorm.DB
	engine  *TurnEngine
	debates *cache.DebateCache
	log     *logrus.Entry
}

func NewDebateSession(db *gorm.DB, engine *TurnEngine, debates *cache.DebateCache) *DebateSession {
	return &DebateSession{
		db:      db,
		engine:  engine,
		debates: debates,
		log:     logrus.WithField("component", "debate_session"),
	}
}

// Initialize creates (or restarts) a debate and returns it with turn #1,
// which is already speaking for the human party.
func (s *DebateSession) Initialize(debateID string, cfg DebateConfig) (*models.Debate, *models.Turn, error) {
	turn, err := s.engine.InitializeDebate(debateID, cfg)
	if err != nil {
		return nil, nil, err
	}

	debate, err := s.loadDebate(turn.DebateID)
	if err != nil {
		return nil, nil, err
	}
	return debate, turn, nil
}

// GetState returns the debate and its current turn. The turn is nil when
// every turn is terminal.
func (s *DebateSession) GetState(debateID string) (*models.Debate, *models.Turn, error) {
	debate, err := s.getDebate(debateID)
	if err != nil {
		return nil, nil, err
	}

	turn, err := s.engine.GetCurrentTurn(debateID)
	if err != nil {
		if errors.Is(err, ErrTurnNotFound) {
			return debate, nil, nil
		}
		return nil, nil, err
	}
	return debate, turn, nil
}

// GetStats returns aggregated turn counts for a debate.
func (s *DebateSession) GetStats(debateID string) (*DebateStats, error) {
	if _, err := s.getDebate(debateID); err != nil {
		return nil, err
	}
	return s.engine.GetDebateStats(debateID)
}

// StartSpeaking starts the debate's current waiting turn. A zero duration
// falls back to the debate's configured per-turn duration.
func (s *DebateSession) StartSpeaking(debateID string, duration int) (*models.Turn, error) {
	debate, err := s.getDebate(debateID)
	if err != nil {
		return nil, err
	}
	if !debate.IsActive() {
		return nil, ErrDebateEnded
	}
	if duration <= 0 {
		duration = debate.TurnDuration
	}

	current, err := s.engine.GetCurrentTurn(debateID)
	if err != nil {
		return nil, err
	}
	return s.engine.StartSpeakingTurn(current.ID, duration)
}

// CompleteCurrentTurn completes the current turn with the caller's payload
// and advances the debate in one transaction. Returns the completed turn and
// its successor; on failure the current turn is left untouched for a retry.
func (s *DebateSession) CompleteCurrentTurn(debateID string, data TurnCompletion) (*models.Turn, *models.Turn, error) {
	debate, err := s.getDebate(debateID)
	if err != nil {
		return nil, nil, err
	}
	if debate.IsEnded() {
		return nil, nil, ErrDebateEnded
	}

	current, err := s.engine.GetCurrentTurn(debateID)
	if err != nil {
		return nil, nil, err
	}

	return s.engine.CompleteAndAdvance(debateID, current.ID, data)
}

// CanUserSpeak reports whether the human party may speak, and for how long.
func (s *DebateSession) CanUserSpeak(debateID, userID string) (bool, float64, error) {
	if _, err := s.getDebate(debateID); err != nil {
		return false, 0, err
	}
	return s.engine.CanUserSpeak(debateID, userID)
}

// CanAISpeak reports whether the AI party may speak, and for how long.
func (s *DebateSession) CanAISpeak(debateID string) (bool, float64, error) {
	if _, err := s.getDebate(debateID); err != nil {
		return false, 0, err
	}
	return s.engine.CanAISpeak(debateID)
}

// TriggerAISpeak starts the AI's waiting turn.
func (s *DebateSession) TriggerAISpeak(debateID string) (*models.Turn, error) {
	debate, err := s.getDebate(debateID)
	if err != nil {
		return nil, err
	}
	if !debate.IsActive() {
		return nil, ErrDebateEnded
	}
	return s.engine.TriggerAISpeak(debateID)
}

// Pause suspends an active debate; its turns are excluded from the sweep
// until Resume.
func (s *DebateSession) Pause(debateID string) (*models.Debate, error) {
	return s.setStatus(debateID, models.DebateStatusActive, models.DebateStatusPaused)
}

// Resume reactivates a paused debate.
func (s *DebateSession) Resume(debateID string) (*models.Debate, error) {
	return s.setStatus(debateID, models.DebateStatusPaused, models.DebateStatusActive)
}

// End terminates the debate. Terminal: a further Pause, Resume or End fails.
func (s *DebateSession) End(debateID string) (*models.Debate, error) {
	debate, err := s.getDebate(debateID)
	if err != nil {
		return nil, err
	}
	if debate.IsEnded() {
		return nil, ErrDebateEnded
	}

	if err := s.updateStatus(debate, models.DebateStatusEnded); err != nil {
		return nil, err
	}
	s.engine.CleanupDebate(debateID)

	s.log.WithField("debate_id", debateID).Info("debate ended")
	return debate, nil
}

func (s *DebateSession) setStatus(debateID, from, to string) (*models.Debate, error) {
	debate, err := s.getDebate(debateID)
	if err != nil {
		return nil, err
	}
	if debate.IsEnded() {
		return nil, ErrDebateEnded
	}
	if debate.Status != from {
		return nil, ErrInvalidTransition
	}

	if err := s.updateStatus(debate, to); err != nil {
		return nil, err
	}
	return debate, nil
}

func (s *DebateSession) updateStatus(debate *models.Debate, status string) error {
	if err := s.db.Model(debate).Update("status", status).Error; err != nil {
		return fmt.Errorf("update debate status: %w", err)
	}
	debate.Status = status

	if err := s.debates.Invalidate(context.Background(), debate.ID); err != nil {
		s.log.WithError(err).Warn("cache invalidate failed")
	}
	return nil
}

// getDebate reads through the cache; the store stays authoritative.
func (s *DebateSession) getDebate(debateID string) (*models.Debate, error) {
	if debate, err := s.debates.Get(context.Background(), debateID); err == nil && debate != nil {
		return debate, nil
	} else if err != nil {
		s.log.WithError(err).Warn("cache read failed")
	}

	debate, err := s.loadDebate(debateID)
	if err != nil {
		return nil, err
	}

	if err := s.debates.Set(context.Background(), debate); err != nil {
		s.log.WithError(err).Warn("cache write failed")
	}
	return debate, nil
}

func (s *DebateSession) loadDebate(debateID string) (*models.Debate, error) {
	var debate models.Debate
	if err := s.db.First(&debate, "id = ?", debateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDebateNotFound
		}
		return nil, fmt.Errorf("load debate: %w", err)
	}
	return &debate, nil
}
