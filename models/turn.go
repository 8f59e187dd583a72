package models

import "time"

const (
	SpeakerHuman = "human"
	SpeakerAI    = "ai"
)

const (
	TurnStateWaiting  = "waiting"
	TurnStateSpeaking = "speaking"
	TurnStateComplete = "complete"
	TurnStateSkipped  = "skipped"
)

type Turn struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	DebateID   string `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_debate_turn_number,priority:1" json:"debate_id"`
	TurnNumber int    `gorm:"not null;uniqueIndex:idx_debate_turn_number,priority:2" json:"turn_number"`
	Speaker    string `gorm:"type:varchar(10);not null" json:"speaker"` // human | ai
	State      string `gorm:"type:varchar(20);not null;default:'waiting'" json:"state"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`

	Transcript string    `gorm:"type:text" json:"transcript"`
	AudioURL   string    `gorm:"type:text" json:"audio_url"`
	Duration   float64   `json:"duration"` // seconds of recorded speech
	CreatedAt  time.Time `json:"created_at"`

	Debate *Debate `gorm:"foreignKey:DebateID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsOpen reports whether the turn is still the debate's current turn.
func (t *Turn) IsOpen() bool {
	return t.State == TurnStateWaiting || t.State == TurnStateSpeaking
}

func (t *Turn) IsTerminal() bool {
	return t.State == TurnStateComplete || t.State == TurnStateSkipped
}

// OppositeSpeaker returns the other party of the two-speaker rotation.
func OppositeSpeaker(speaker string) string {
	if speaker == SpeakerHuman {
		return SpeakerAI
	}
	return SpeakerHuman
}
