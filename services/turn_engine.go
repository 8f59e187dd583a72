package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pgadwala09/VocabPro-sub001/models"
)

// DefaultTurnDuration is applied when a turn is started without an explicit
// duration, including AI turns auto-started on advance.
const DefaultTurnDuration = 60 // seconds

const defaultRounds = 3

// Sentinel transcripts written when the sweep reclaims an overdue turn.
const (
	skippedHumanTranscript = "[No response - turn skipped]"
	skippedAITranscript    = "[AI response unavailable - turn skipped]"
)

var openTurnStates = []string{models.TurnStateWaiting, models.TurnStateSpeaking}

// DebateConfig carries the caller-supplied settings for InitializeDebate.
type DebateConfig struct {
	Topic    string
	Duration int // per-turn seconds, 0 means DefaultTurnDuration
	Rounds   int
}

// TurnCompletion is the structured completion payload. All fields are
// optional; the engine writes them verbatim and never validates content.
type TurnCompletion struct {
	Transcript string
	AudioURL   string
	Duration   float64
}

// DebateStats aggregates a debate's turns for read-only reporting.
type DebateStats struct {
	DebateID       string       `json:"debate_id"`
	TotalTurns     int          `json:"total_turns"`
	CompletedTurns int          `json:"completed_turns"`
	SkippedTurns   int          `json:"skipped_turns"`
	HumanTurns     int          `json:"human_turns"`
	AITurns        int          `json:"ai_turns"`
	CurrentTurn    *models.Turn `json:"current_turn,omitempty"`
}

// TurnEngine is the sole mutator of turn and debate state. All timeouts are
// data-driven (ends_at stored with the turn), so correctness survives
// process restarts; the in-memory bookkeeping here is advisory only.
type TurnEngine struct {
	db  *gorm.DB
	log *logrus.Entry

	// debates this process has touched, freed by CleanupDebate
	active sync.Map
}

func NewTurnEngine(db *gorm.DB) *TurnEngine {
	return &TurnEngine{
		db:  db,
		log: logrus.WithField("component", "turn_engine"),
	}
}

// InitializeDebate creates the debate record if needed, then creates and
// starts turn #1 for the human speaker. Calling it again while the debate
// has an open turn fails with ErrInvalidTransition.
func (e *TurnEngine) InitializeDebate(debateID string, cfg DebateConfig) (*models.Turn, error) {
	if debateID == "" {
		debateID = uuid.New().String()
	}

	duration := cfg.Duration
	if duration <= 0 {
		duration = DefaultTurnDuration
	}
	rounds := cfg.Rounds
	if rounds <= 0 {
		rounds = defaultRounds
	}

	var turn models.Turn

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var debate models.Debate
		err := lockForUpdate(tx).First(&debate, "id = ?", debateID).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			debate = models.Debate{
				ID:           debateID,
				Topic:        cfg.Topic,
				Rounds:       rounds,
				TurnDuration: duration,
				Status:       models.DebateStatusActive,
			}
			if err := tx.Create(&debate).Error; err != nil {
				return fmt.Errorf("create debate: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load debate: %w", err)
		default:
			if debate.IsEnded() {
				return ErrDebateEnded
			}
			var open int64
			if err := tx.Model(&models.Turn{}).
				Where("debate_id = ? AND state IN ?", debateID, openTurnStates).
				Count(&open).Error; err != nil {
				return fmt.Errorf("count open turns: %w", err)
			}
			if open > 0 {
				return ErrInvalidTransition
			}
		}

		number, err := nextTurnNumber(tx, debateID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		ends := now.Add(time.Duration(duration) * time.Second)
		turn = models.Turn{
			DebateID:   debateID,
			TurnNumber: number,
			Speaker:    models.SpeakerHuman,
			State:      models.TurnStateSpeaking,
			StartedAt:  &now,
			EndsAt:     &ends,
		}
		if err := tx.Create(&turn).Error; err != nil {
			return fmt.Errorf("create first turn: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.active.Store(debateID, struct{}{})
	e.log.WithFields(logrus.Fields{
		"debate_id": debateID,
		"duration":  duration,
	}).Info("debate initialized")

	return &turn, nil
}

// CreateNextTurn inserts a new waiting turn with the next turn number. The
// debate row is locked for the duration of the transaction so a client
// completion and a sweep firing at the same instant cannot both insert; the
// unique (debate_id, turn_number) index backs the lock up.
func (e *TurnEngine) CreateNextTurn(debateID, speaker string) (*models.Turn, error) {
	var turn *models.Turn

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		turn, err = createNextTurnTx(tx, debateID, speaker)
		return err
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

func createNextTurnTx(tx *gorm.DB, debateID, speaker string) (*models.Turn, error) {
	var debate models.Debate
	if err := lockForUpdate(tx).First(&debate, "id = ?", debateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDebateNotFound
		}
		return nil, fmt.Errorf("load debate: %w", err)
	}

	number, err := nextTurnNumber(tx, debateID)
	if err != nil {
		return nil, err
	}

	turn := models.Turn{
		DebateID:   debateID,
		TurnNumber: number,
		Speaker:    speaker,
		State:      models.TurnStateWaiting,
	}
	if err := tx.Create(&turn).Error; err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return &turn, nil
}

// lockForUpdate takes a row lock on dialects that support it. SQLite has a
// single writer, so the transaction alone serializes there; the unique
// (debate_id, turn_number) index is the cross-dialect backstop.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func nextTurnNumber(tx *gorm.DB, debateID string) (int, error) {
	var highest int
	err := tx.Model(&models.Turn{}).
		Where("debate_id = ?", debateID).
		Select("COALESCE(MAX(turn_number), 0)").
		Scan(&highest).Error
	if err != nil {
		return 0, fmt.Errorf("max turn number: %w", err)
	}
	return highest + 1, nil
}

// StartSpeakingTurn transitions waiting -> speaking, stamping started_at and
// ends_at. The update is conditional on the source state, so a lost race
// surfaces as ErrInvalidTransition rather than a double start.
func (e *TurnEngine) StartSpeakingTurn(turnID uint, duration int) (*models.Turn, error) {
	return startSpeakingTurnTx(e.db, turnID, duration)
}

func startSpeakingTurnTx(db *gorm.DB, turnID uint, duration int) (*models.Turn, error) {
	if duration <= 0 {
		duration = DefaultTurnDuration
	}

	now := time.Now().UTC()
	ends := now.Add(time.Duration(duration) * time.Second)

	res := db.Model(&models.Turn{}).
		Where("id = ? AND state = ?", turnID, models.TurnStateWaiting).
		Updates(map[string]interface{}{
			"state":      models.TurnStateSpeaking,
			"started_at": now,
			"ends_at":    ends,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("start turn: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, turnTransitionError(db, turnID)
	}

	return getTurn(db, turnID)
}

// CompleteTurn transitions speaking -> complete (waiting is also accepted to
// support instant completion) and writes the caller's payload verbatim.
func (e *TurnEngine) CompleteTurn(turnID uint, data TurnCompletion) (*models.Turn, error) {
	return completeTurnTx(e.db, turnID, data)
}

func completeTurnTx(db *gorm.DB, turnID uint, data TurnCompletion) (*models.Turn, error) {
	res := db.Model(&models.Turn{}).
		Where("id = ? AND state IN ?", turnID, openTurnStates).
		Updates(map[string]interface{}{
			"state":      models.TurnStateComplete,
			"transcript": data.Transcript,
			"audio_url":  data.AudioURL,
			"duration":   data.Duration,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("complete turn: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, turnTransitionError(db, turnID)
	}

	return getTurn(db, turnID)
}

// CompleteAndAdvance completes a turn and creates its successor in one
// transaction. If either half fails the whole thing rolls back, leaving the
// turn speaking so the caller or the sweep can retry.
func (e *TurnEngine) CompleteAndAdvance(debateID string, turnID uint, data TurnCompletion) (*models.Turn, *models.Turn, error) {
	var completed, next *models.Turn

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		completed, err = completeTurnTx(tx, turnID, data)
		if err != nil {
			return err
		}
		if completed.DebateID != debateID {
			return ErrTurnNotFound
		}
		next, err = advanceTx(tx, completed)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return completed, next, nil
}

// AdvanceTurn creates the successor of the given terminal turn for the
// opposite speaker. AI turns are started immediately; human turns stay
// waiting until the client explicitly starts speaking.
func (e *TurnEngine) AdvanceTurn(debateID string, currentTurnID uint) (*models.Turn, error) {
	var next *models.Turn

	err := e.db.Transaction(func(tx *gorm.DB) error {
		current, err := getTurn(tx, currentTurnID)
		if err != nil {
			return err
		}
		if current.DebateID != debateID {
			return ErrTurnNotFound
		}
		if !current.IsTerminal() {
			return ErrInvalidTransition
		}

		next, err = advanceTx(tx, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// advanceTx creates the successor of a just-resolved turn inside the
// caller's transaction.
func advanceTx(tx *gorm.DB, current *models.Turn) (*models.Turn, error) {
	nextSpeaker := models.OppositeSpeaker(current.Speaker)
	next, err := createNextTurnTx(tx, current.DebateID, nextSpeaker)
	if err != nil {
		return nil, err
	}

	if nextSpeaker == models.SpeakerAI {
		return startSpeakingTurnTx(tx, next.ID, DefaultTurnDuration)
	}
	return next, nil
}

// GetCurrentTurn returns the debate's single open turn. If the invariant is
// violated and more than one open turn exists, the latest by turn number is
// chosen deterministically and the fault is logged.
func (e *TurnEngine) GetCurrentTurn(debateID string) (*models.Turn, error) {
	var open []models.Turn
	err := e.db.
		Where("debate_id = ? AND state IN ?", debateID, openTurnStates).
		Order("turn_number desc").
		Find(&open).Error
	if err != nil {
		return nil, fmt.Errorf("load current turn: %w", err)
	}
	if len(open) == 0 {
		return nil, ErrTurnNotFound
	}
	if len(open) > 1 {
		e.log.WithFields(logrus.Fields{
			"debate_id":  debateID,
			"open_turns": len(open),
		}).Warn("multiple open turns, picking latest")
	}
	return &open[0], nil
}

// CanUserSpeak reports whether the human party may speak now, with seconds
// remaining. The userId is trusted here; membership is the session layer's
// concern.
func (e *TurnEngine) CanUserSpeak(debateID string, userID string) (bool, float64, error) {
	return e.canSpeak(debateID, models.SpeakerHuman)
}

// CanAISpeak reports whether the AI party may speak now, with seconds remaining.
func (e *TurnEngine) CanAISpeak(debateID string) (bool, float64, error) {
	return e.canSpeak(debateID, models.SpeakerAI)
}

func (e *TurnEngine) canSpeak(debateID, speaker string) (bool, float64, error) {
	current, err := e.GetCurrentTurn(debateID)
	if err != nil {
		if errors.Is(err, ErrTurnNotFound) {
			return false, 0, nil
		}
		return false, 0, err
	}

	if current.Speaker != speaker || current.State != models.TurnStateSpeaking {
		return false, 0, nil
	}

	remaining := 0.0
	if current.EndsAt != nil {
		remaining = time.Until(*current.EndsAt).Seconds()
		if remaining < 0 {
			remaining = 0
		}
	}
	return true, remaining, nil
}

// TriggerAISpeak starts the AI's waiting turn. Fails with ErrNotYourTurn if
// the current speaker is not the AI.
func (e *TurnEngine) TriggerAISpeak(debateID string) (*models.Turn, error) {
	current, err := e.GetCurrentTurn(debateID)
	if err != nil {
		return nil, err
	}
	if current.Speaker != models.SpeakerAI {
		return nil, ErrNotYourTurn
	}
	if current.State == models.TurnStateSpeaking {
		return current, nil
	}
	return e.StartSpeakingTurn(current.ID, DefaultTurnDuration)
}

// GetDebateStats aggregates all turns of a debate. Pure read.
func (e *TurnEngine) GetDebateStats(debateID string) (*DebateStats, error) {
	var debate models.Debate
	if err := e.db.First(&debate, "id = ?", debateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDebateNotFound
		}
		return nil, fmt.Errorf("load debate: %w", err)
	}

	var turns []models.Turn
	if err := e.db.
		Where("debate_id = ?", debateID).
		Order("turn_number asc").
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}

	stats := &DebateStats{DebateID: debateID, TotalTurns: len(turns)}
	for i := range turns {
		t := &turns[i]
		switch t.State {
		case models.TurnStateComplete:
			stats.CompletedTurns++
		case models.TurnStateSkipped:
			stats.SkippedTurns++
		}
		switch t.Speaker {
		case models.SpeakerHuman:
			stats.HumanTurns++
		case models.SpeakerAI:
			stats.AITurns++
		}
		if t.IsOpen() {
			stats.CurrentTurn = t
		}
	}
	return stats, nil
}

// CleanupDebate frees this process's bookkeeping for a debate. It is
// advisory: persisted turn state is never touched.
func (e *TurnEngine) CleanupDebate(debateID string) {
	e.active.Delete(debateID)
	e.log.WithField("debate_id", debateID).Debug("debate cleaned up")
}

// SweepOverdueTurns reclaims every speaking turn whose deadline has passed,
// across all active debates. Each overdue turn is skipped with a sentinel
// transcript and its successor created; a failure on one turn does not
// abort the rest, and the turn stays overdue for the next tick to retry.
// Returns the number of turns advanced.
func (e *TurnEngine) SweepOverdueTurns() (int, error) {
	now := time.Now().UTC()

	var overdue []models.Turn
	err := e.db.
		Joins("JOIN debates ON debates.id = turns.debate_id").
		Where("turns.state = ? AND turns.ends_at < ? AND debates.status = ?",
			models.TurnStateSpeaking, now, models.DebateStatusActive).
		Find(&overdue).Error
	if err != nil {
		return 0, fmt.Errorf("query overdue turns: %w", err)
	}

	advanced := 0
	for i := range overdue {
		turn := &overdue[i]
		skipped, err := e.skipAndAdvance(turn)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"debate_id": turn.DebateID,
				"turn_id":   turn.ID,
			}).WithError(err).Error("auto-advance failed")
			continue
		}
		if skipped {
			advanced++
		}
	}
	return advanced, nil
}

// skipAndAdvance reports whether this sweep claimed the turn; false means a
// concurrent completion resolved it first.
func (e *TurnEngine) skipAndAdvance(turn *models.Turn) (bool, error) {
	transcript := skippedHumanTranscript
	if turn.Speaker == models.SpeakerAI {
		transcript = skippedAITranscript
	}

	// The skip and the successor creation commit together or not at all: a
	// failed advance rolls the turn back to speaking, and the next tick's
	// overdue query finds it again.
	claimed := false
	err := e.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Turn{}).
			Where("id = ? AND state = ?", turn.ID, models.TurnStateSpeaking).
			Updates(map[string]interface{}{
				"state":      models.TurnStateSkipped,
				"transcript": transcript,
			})
		if res.Error != nil {
			return fmt.Errorf("skip turn: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// lost the race to a concurrent completion, nothing to do
			return nil
		}
		claimed = true

		_, err := advanceTx(tx, turn)
		return err
	})
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	e.log.WithFields(logrus.Fields{
		"debate_id":   turn.DebateID,
		"turn_id":     turn.ID,
		"turn_number": turn.TurnNumber,
		"speaker":     turn.Speaker,
	}).Info("overdue turn skipped")
	return true, nil
}

func getTurn(db *gorm.DB, turnID uint) (*models.Turn, error) {
	var turn models.Turn
	if err := db.First(&turn, turnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTurnNotFound
		}
		return nil, fmt.Errorf("load turn: %w", err)
	}
	return &turn, nil
}

// turnTransitionError distinguishes a missing turn from one in the wrong state.
func turnTransitionError(db *gorm.DB, turnID uint) error {
	if _, err := getTurn(db, turnID); err != nil {
		return err
	}
	return ErrInvalidTransition
}
