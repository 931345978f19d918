package storage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"lightshow/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// SequenceExt marks the light sequence stored beside each audio file.
const SequenceExt = ".bin"

var ErrBadName = errors.New("invalid file name")

// Client stores audio files and their light sequences side by side:
// "song.mp3" plays with "song.mp3.bin".
type Client struct {
	backend StorageProvider
	bucket  string
	prefix  string

	// Cache for the library listing
	cache      []string
	cacheTime  time.Time
	cacheMutex sync.RWMutex
}

const CacheTTL = 1 * time.Minute

func New(cfg *config.Config) *Client {
	var backend StorageProvider

	if cfg.Storage.Provider == "s3" {
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.Storage.KeyID, cfg.Storage.AppKey, ""),
			Region:           aws.String(cfg.Storage.Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		if cfg.Storage.Endpoint != "" {
			s3Config.Endpoint = aws.String(cfg.Storage.Endpoint)
		}
		sess := session.Must(session.NewSession(s3Config))
		backend = NewS3Provider(sess)
	} else {
		backend = NewLocalProvider(cfg.Storage.LocalPath)
	}

	return NewWithProvider(backend, cfg.Storage.Bucket, cfg.Storage.Prefix)
}

func NewWithProvider(backend StorageProvider, bucket, prefix string) *Client {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Client{backend: backend, bucket: bucket, prefix: prefix}
}

// CleanName rejects names that could escape the library directory.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return path.Clean(name), nil
}

// ListAudio returns audio file names, skipping sequences and dotfiles.
func (c *Client) ListAudio() ([]string, error) {
	c.cacheMutex.RLock()
	files, ts := c.cache, c.cacheTime
	c.cacheMutex.RUnlock()

	if files != nil && time.Since(ts) < CacheTTL {
		return files, nil
	}

	keys, err := c.backend.List(c.bucket, c.prefix)
	if err != nil {
		return nil, err
	}

	files = make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, c.prefix)
		if strings.Contains(name, "/") || strings.HasPrefix(name, ".") ||
			strings.HasSuffix(name, SequenceExt) || strings.HasSuffix(name, ".tmp") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	c.cacheMutex.Lock()
	c.cache = files
	c.cacheTime = time.Now()
	c.cacheMutex.Unlock()

	return files, nil
}

func (c *Client) invalidate() {
	c.cacheMutex.Lock()
	c.cache = nil
	c.cacheMutex.Unlock()
}

// OpenAudio opens a stored file by name. The caller closes the body.
func (c *Client) OpenAudio(name string) (*FileObject, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	return c.backend.Get(c.bucket, c.prefix+name)
}

// ReadSequence loads the light sequence for an audio file.
func (c *Client) ReadSequence(name string) ([]byte, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	obj, err := c.backend.Get(c.bucket, c.prefix+name+SequenceExt)
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()
	return io.ReadAll(obj.Body)
}

// Upload stores an audio file or a sequence under name.
func (c *Client) Upload(name string, body io.ReadSeeker, contentType string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	defer c.invalidate()
	return c.backend.Put(c.bucket, c.prefix+name, body, contentType, "")
}

// Delete removes an audio file and its sequence. A missing sequence is fine;
// a missing audio file is ErrNotFound.
func (c *Client) Delete(name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	defer c.invalidate()

	if err := c.backend.Delete(c.bucket, c.prefix+name+SequenceExt); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return c.backend.Delete(c.bucket, c.prefix+name)
}

// HasSequence reports whether name has a light sequence stored.
func (c *Client) HasSequence(name string) (bool, error) {
	name, err := CleanName(name)
	if err != nil {
		return false, err
	}
	return c.backend.Exists(c.bucket, c.prefix+name+SequenceExt)
}
