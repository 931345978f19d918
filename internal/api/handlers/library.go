package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"lightshow/internal/metadata"
	"lightshow/internal/storage"
)

// LibraryHandler manages the audio files and light sequences the player
// UI picks from.
type LibraryHandler struct {
	storage   *storage.Client
	maxUpload int64
}

// NewLibraryHandler creates a LibraryHandler. maxUploadMB <= 0 means no limit.
func NewLibraryHandler(st *storage.Client, maxUploadMB int) *LibraryHandler {
	return &LibraryHandler{storage: st, maxUpload: int64(maxUploadMB) << 20}
}

// Upload stores the raw request body under the name given in X-Filename.
// A name ending in .bin is the light sequence for the audio file it extends.
func (h *LibraryHandler) Upload(c *gin.Context) {
	name := c.GetHeader("X-Filename")
	if name == "" {
		name = c.Query("filename")
	}
	if _, err := storage.CleanName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid X-Filename header"})
		return
	}

	body := io.Reader(c.Request.Body)
	if h.maxUpload > 0 {
		body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty upload"})
		return
	}

	if err := h.storage.Upload(name, bytes.NewReader(data), c.ContentType()); err != nil {
		slog.Error("Upload failed", "file", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	slog.Info("File uploaded", "file", name, "bytes", len(data))
	c.JSON(http.StatusOK, gin.H{"message": "File uploaded", "file": name, "size": len(data)})
}

// List returns the playable audio files. With ?details=1 each entry also
// carries its tags and whether a light sequence exists for it.
func (h *LibraryHandler) List(c *gin.Context) {
	files, err := h.storage.ListAudio()
	if err != nil {
		slog.Error("Failed to list library", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
		return
	}

	if c.Query("details") != "1" {
		c.JSON(http.StatusOK, gin.H{"files": files})
		return
	}

	tracks := make([]metadata.Track, 0, len(files))
	for _, name := range files {
		tracks = append(tracks, h.describe(name))
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "tracks": tracks})
}

func (h *LibraryHandler) describe(name string) metadata.Track {
	t := metadata.Track{File: name, Title: metadata.TitleFromName(name)}
	if obj, err := h.storage.OpenAudio(name); err == nil {
		t = metadata.ReadTags(name, obj.Body)
		obj.Body.Close()
	}
	t.HasSequence, _ = h.storage.HasSequence(name)
	return t
}

// Audio streams a stored audio file to the player.
func (h *LibraryHandler) Audio(c *gin.Context) {
	name := c.Param("filename")

	obj, err := h.storage.OpenAudio(name)
	if err != nil {
		h.storageError(c, name, err)
		return
	}
	defer obj.Body.Close()

	c.Header("Cache-Control", "no-cache")
	c.DataFromReader(http.StatusOK, obj.ContentLength, obj.ContentType, obj.Body, nil)
}

// Delete removes an audio file and its light sequence.
func (h *LibraryHandler) Delete(c *gin.Context) {
	name := c.Param("filename")

	if err := h.storage.Delete(name); err != nil {
		h.storageError(c, name, err)
		return
	}
	slog.Info("File deleted", "file", name)
	c.JSON(http.StatusOK, gin.H{"message": "File deleted", "file": name})
}

func (h *LibraryHandler) storageError(c *gin.Context, name string, err error) {
	switch {
	case errors.Is(err, storage.ErrBadName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	default:
		slog.Error("Storage error", "file", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage error"})
	}
}
