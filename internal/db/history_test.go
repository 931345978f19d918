package database

import (
	"errors"
	"testing"
	"time"

	"lightshow/internal/config"
	"lightshow/internal/show"
)

func setupTestDB(t *testing.T) *Client {
	t.Helper()
	cfg := config.Defaults()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = ":memory:"

	d, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c := &Client{DB: d}
	c.AutoMigrate()
	return c
}

func TestSessionFinishedRecordsRun(t *testing.T) {
	c := setupTestDB(t)
	start := time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC)

	c.SessionFinished(show.Result{
		SessionID:    "a1",
		Name:         "carol.mp3",
		FPS:          40,
		Frames:       400,
		FramesPlayed: 120,
		Outcome:      show.OutcomeFailed,
		Err:          errors.New("pin 7 write failed"),
		StartedAt:    start,
		EndedAt:      start.Add(3 * time.Second),
	})

	runs, err := c.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.SessionID != "a1" || r.Name != "carol.mp3" || r.FramesPlayed != 120 {
		t.Errorf("unexpected run: %+v", r)
	}
	if r.Outcome != "failed" || r.Error != "pin 7 write failed" {
		t.Errorf("Outcome=%q Error=%q", r.Outcome, r.Error)
	}
	if r.Duration() != 3*time.Second {
		t.Errorf("Duration = %v, want 3s", r.Duration())
	}
}

func TestRecentNewestFirst(t *testing.T) {
	c := setupTestDB(t)
	base := time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC)

	for i, name := range []string{"first", "second", "third"} {
		c.SessionFinished(show.Result{
			SessionID: name,
			Name:      name,
			Outcome:   show.OutcomeCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i)*time.Minute + time.Second),
		})
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"Limited", 2, []string{"third", "second"}},
		{"Default", 0, []string{"third", "second", "first"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := c.Recent(tt.limit)
			if err != nil {
				t.Fatalf("Recent failed: %v", err)
			}
			if len(runs) != len(tt.want) {
				t.Fatalf("got %d runs, want %d", len(runs), len(tt.want))
			}
			for i, w := range tt.want {
				if runs[i].Name != w {
					t.Errorf("runs[%d] = %s, want %s", i, runs[i].Name, w)
				}
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.Database.Driver = "mongo"
	if _, err := Open(cfg); err == nil {
		t.Error("Open accepted an unknown driver")
	}
}
