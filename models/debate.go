package models

import "time"

const (
	DebateStatusActive = "active"
	DebateStatusPaused = "paused"
	DebateStatusEnded  = "ended"
)

type Debate struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Topic        string    `gorm:"type:text" json:"topic"`
	Rounds       int       `gorm:"not null;default:3" json:"rounds"`
	TurnDuration int       `gorm:"not null;default:60" json:"turn_duration"` // seconds
	Status       string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (d *Debate) IsActive() bool {
	return d.Status == DebateStatusActive
}

func (d *Debate) IsEnded() bool {
	return d.Status == DebateStatusEnded
}
