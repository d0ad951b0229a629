// Package imagecache loads avatar images through three tiers: a bounded
// in-memory LRU keyed by URL, an on-disk cache keyed by a content hash of
// the URL, and finally the network. Disk hits warm the memory tier; network
// hits warm both.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/dkovalev/hubsync/internal/filex"
	"github.com/dkovalev/hubsync/internal/logging"
)

// DefaultMemoryEntries bounds the LRU memory tier.
const DefaultMemoryEntries = 128

var (
	// ErrNotImage is returned when the fetched payload does not sniff as
	// an image.
	ErrNotImage = errors.New("payload is not an image")

	// ErrFetch covers transport failures and non-2xx responses.
	ErrFetch = errors.New("image fetch failed")
)

// Cache is safe for concurrent use. Entries are immutable once stored, so
// concurrent population of the same key is last-writer-wins by design of
// the underlying LRU.
type Cache struct {
	dir  string
	mem  *lru.Cache[string, []byte]
	http *http.Client
	log  logging.Logger

	group singleflight.Group
}

// New creates the disk directory if needed and sizes the memory tier to
// memEntries (DefaultMemoryEntries when <= 0).
func New(dir string, memEntries int, log logging.Logger) (*Cache, error) {
	if err := filex.EnsureDir(dir); err != nil {
		return nil, err
	}
	if memEntries <= 0 {
		memEntries = DefaultMemoryEntries
	}
	mem, err := lru.New[string, []byte](memEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{
		dir:  dir,
		mem:  mem,
		http: &http.Client{Timeout: 15 * time.Second},
		log:  log,
	}, nil
}

// Load returns the image bytes for url, consulting memory, then disk, then
// the network. Concurrent loads of the same URL collapse into one fetch.
func (c *Cache) Load(ctx context.Context, url string) ([]byte, error) {
	if b, ok := c.mem.Get(url); ok {
		return b, nil
	}

	v, err, _ := c.group.Do(url, func() (any, error) {
		return c.loadSlow(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) loadSlow(ctx context.Context, url string) ([]byte, error) {
	path := c.path(url)

	if b, err := os.ReadFile(path); err == nil {
		c.log.Debug(ctx, "image served from disk", "url", url)
		c.mem.Add(url, b)
		return b, nil
	}

	b, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mem.Add(url, b)
	if err := os.WriteFile(path, b, 0o600); err != nil {
		// the memory tier still holds the image; disk is best effort
		c.log.Warn(ctx, "image disk write failed", "url", url, "err", err)
	}
	return b, nil
}

func (c *Cache) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %s", ErrFetch, resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if len(b) == 0 || !strings.HasPrefix(http.DetectContentType(b), "image/") {
		return nil, ErrNotImage
	}
	return b, nil
}

// path derives the disk location: lowercase hex SHA-256 of the URL string.
func (c *Cache) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:]))
}

// Slot tracks the most recent URL bound to one display position. Rapid
// rebinding (a recycled list row scrolling by) soft-cancels earlier loads:
// their results are discarded at completion time, never delivered stale.
type Slot struct {
	current atomic.Value // string
}

// Bind makes url the slot's current request.
func (s *Slot) Bind(url string) {
	s.current.Store(url)
}

// Current returns the most recently bound URL.
func (s *Slot) Current() string {
	v, _ := s.current.Load().(string)
	return v
}

// LoadInto binds url to the slot and loads it asynchronously. deliver runs
// only if the slot still wants this URL when the load completes; otherwise
// the result is dropped (the fetch itself is not aborted — wasted work, not
// a correctness problem).
func (c *Cache) LoadInto(ctx context.Context, slot *Slot, url string, deliver func([]byte)) {
	slot.Bind(url)
	go func() {
		b, err := c.Load(ctx, url)
		if err != nil {
			c.log.Warn(ctx, "image load failed", "url", url, "err", err)
			return
		}
		if slot.Current() != url {
			return
		}
		deliver(b)
	}()
}
