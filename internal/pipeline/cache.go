package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/scanner"
)

// DefaultCacheSize is the number of file fingerprints remembered.
const DefaultCacheSize = 10000

// fingerprint identifies the indexed version of a file.
type fingerprint struct {
	Size    int64
	ModTime time.Time
	Hash    string
}

// fileCache remembers what was indexed per path so unchanged files are
// skipped on the next run. Evicted files are simply re-read.
type fileCache struct {
	entries *lru.Cache[string, fingerprint]
}

func newFileCache(size int) (*fileCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, fingerprint](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create file cache: %w", err)
	}
	return &fileCache{entries: c}, nil
}

// unchanged reports whether f still matches its cached size and mtime.
func (c *fileCache) unchanged(f scanner.FileInfo) bool {
	fp, ok := c.entries.Peek(f.Path)
	return ok && fp.Size == f.Size && fp.ModTime.Equal(f.ModTime)
}

// sameContent reports whether hash matches the cached content hash.
func (c *fileCache) sameContent(path, hash string) bool {
	fp, ok := c.entries.Peek(path)
	return ok && fp.Hash == hash
}

func (c *fileCache) put(f scanner.FileInfo, hash string) {
	c.entries.Add(f.Path, fingerprint{Size: f.Size, ModTime: f.ModTime, Hash: hash})
}

func (c *fileCache) remove(path string) {
	c.entries.Remove(path)
}

func (c *fileCache) count() int {
	return c.entries.Len()
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
