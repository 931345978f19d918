package database

import (
	"log/slog"

	"lightshow/internal/models"
	"lightshow/internal/show"
)

// DefaultHistoryLimit caps how many runs Recent returns when asked for none.
const DefaultHistoryLimit = 50

// SessionFinished stores r as a ShowRun. It satisfies show.Observer; a failed
// insert is logged and does not affect playback.
func (c *Client) SessionFinished(r show.Result) {
	run := models.ShowRun{
		SessionID:    r.SessionID,
		Name:         r.Name,
		FPS:          r.FPS,
		Frames:       r.Frames,
		FramesPlayed: r.FramesPlayed,
		Outcome:      string(r.Outcome),
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}

	if err := c.DB.Create(&run).Error; err != nil {
		slog.Error("Failed to record show run", "session", r.SessionID, "error", err)
	}
}

// Recent returns the newest runs first.
func (c *Client) Recent(limit int) ([]models.ShowRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var runs []models.ShowRun
	err := c.DB.Order("started_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
