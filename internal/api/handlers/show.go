package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"lightshow/internal/frames"
	"lightshow/internal/show"
	"lightshow/internal/storage"
)

// ShowHandler drives the light controller from the player UI.
type ShowHandler struct {
	controller *show.Controller
	storage    *storage.Client
	channels   int
	delay      time.Duration

	// startMu serializes stop-then-schedule so the newest request wins.
	startMu sync.Mutex

	// pending is a play waiting for its announced start time.
	mu      sync.Mutex
	pending *time.Timer
}

// NewShowHandler creates a ShowHandler. delay is how far ahead of the
// response a show is scheduled, so the client can start its audio in step.
func NewShowHandler(c *show.Controller, st *storage.Client, channels int, delay time.Duration) *ShowHandler {
	return &ShowHandler{
		controller: c,
		storage:    st,
		channels:   channels,
		delay:      delay,
	}
}

// PlayRaw starts the light sequence posted as the request body.
func (h *ShowHandler) PlayRaw(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, frames.MaxSequenceBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Sequence too large"})
		return
	}
	h.start(c, "upload", data)
}

// PlayFile starts the sequence stored beside an audio file.
func (h *ShowHandler) PlayFile(c *gin.Context) {
	name := c.Param("filename")

	data, err := h.storage.ReadSequence(name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrBadName):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No light sequence for " + name})
		default:
			slog.Error("Failed to read sequence", "file", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		}
		return
	}
	h.start(c, name, data)
}

// PlayPattern runs a built-in wiring test pattern.
func (h *ShowHandler) PlayPattern(c *gin.Context) {
	fps, err := strconv.Atoi(c.DefaultQuery("fps", "4"))
	if err != nil || fps < 1 || fps > 255 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fps must be between 1 and 255"})
		return
	}
	repeat, err := strconv.Atoi(c.DefaultQuery("repeat", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "repeat must be a number"})
		return
	}

	pattern := c.Param("pattern")
	data, err := frames.Generate(pattern, uint8(fps), h.channels, repeat)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.start(c, "test:"+pattern, data)
}

// start decodes data, stops whatever is playing, answers with the agreed
// start time and queues the show to begin at that time.
func (h *ShowHandler) start(c *gin.Context, name string, data []byte) {
	seq, err := frames.Decode(data, h.channels)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.startMu.Lock()
	defer h.startMu.Unlock()

	// Once pending is cleared under startMu, an older request's timer can no
	// longer start its show.
	ctx := c.Request.Context()
	h.cancelPending()
	if _, err := h.controller.RequestStop().Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		// The previous show failed on its own; that does not block this one.
		slog.Warn("Previous show ended with error", "error", err)
	}

	startAt := time.Now().Add(h.delay)
	h.schedule(startAt, name, seq)

	slog.Info("Show scheduled", "name", name, "fps", seq.FPS, "frames", seq.Len(), "duration", seq.Duration(), "start", startAt)
	c.JSON(http.StatusOK, gin.H{"startTime": startAt.UnixMilli()})
}

func (h *ShowHandler) schedule(at time.Time, name string, seq *frames.Sequence) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var t *time.Timer
	t = time.AfterFunc(time.Until(at), func() {
		h.mu.Lock()
		if h.pending != t {
			h.mu.Unlock()
			return
		}
		h.pending = nil
		h.mu.Unlock()
		h.controller.RequestPlay(name, seq)
	})
	h.pending = t
}

// cancelPending drops a scheduled show that has not started yet.
func (h *ShowHandler) cancelPending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return false
	}
	h.pending.Stop()
	h.pending = nil
	return true
}

// Stop cancels the running show, everything queued and any show waiting
// for its start time, then replies once the lights are no longer driven.
func (h *ShowHandler) Stop(c *gin.Context) {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	dropped := h.cancelPending()

	ctx := c.Request.Context()
	res, _ := h.controller.RequestStop().Wait(ctx)
	if ctx.Err() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stop did not complete"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stopped":        res.Outcome != show.OutcomeIdle || dropped,
		"frames_played":  res.FramesPlayed,
		"pending_cancel": dropped,
	})
}

// Status returns the controller snapshot.
func (h *ShowHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Status())
}
