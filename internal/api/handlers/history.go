package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lightshow/internal/models"
)

// HistoryStore is the read side of the show history.
type HistoryStore interface {
	Recent(limit int) ([]models.ShowRun, error)
}

type HistoryHandler struct {
	store HistoryStore
}

func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

// GetHistory returns the most recent show runs, newest first.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit > 500 {
		limit = 500 // Hard cap to protect the server
	}

	runs, err := h.store.Recent(limit)
	if err != nil {
		slog.Error("Failed to fetch history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs, "meta": gin.H{"limit": limit}})
}
