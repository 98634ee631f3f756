package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"time"

	"doc-chunker/internal/chunker"
)

// Cache stores chunking results for identical inputs.
type Cache interface {
	// GetChunks retrieves a cached result by key.
	// Returns nil if not found.
	GetChunks(ctx context.Context, key string) (*ChunkResult, error)

	// SetChunks stores a result with TTL.
	SetChunks(ctx context.Context, key string, result *ChunkResult, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}

// ChunkResult is a cached chunking response.
type ChunkResult struct {
	Chunks []chunker.Chunk `json:"chunks"`
}

// GenerateCacheKey hashes the pages together with everything that changes
// the chunking outcome.
func GenerateCacheKey(pages []string, opts chunker.Options, encoding string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range pages {
		// length prefix keeps page boundaries unambiguous
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write([]byte(p))
	}
	h.Write([]byte("|max=" + strconv.Itoa(opts.MaxTokens)))
	h.Write([]byte("|split=" + strconv.FormatBool(opts.SplitIfExceedsLimit)))
	h.Write([]byte("|enc=" + encoding))
	return hex.EncodeToString(h.Sum(nil))
}
