package models

import (
	"time"
)

// ShowRun records one playback session once it reaches a terminal state.
type ShowRun struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	SessionID    string `gorm:"uniqueIndex;size:36;not null" json:"session_id"`
	Name         string `gorm:"index" json:"name"`
	FPS          int    `json:"fps"`
	Frames       int    `json:"frames"`
	FramesPlayed int    `json:"frames_played"`
	Outcome      string `gorm:"index;size:16" json:"outcome"` // completed, cancelled, failed
	Error        string `json:"error,omitempty"`

	StartedAt time.Time `gorm:"index" json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Duration is how long the session actually ran.
func (r ShowRun) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
