// Package cache provides caching for expensive pipeline stages.
//
// The Cache interface abstracts over storage backends:
//   - file: File-based cache for CLI usage
//   - redis: Redis-backed cache for server deployments
//   - null: No-op cache for testing or when caching is disabled
//
// The Keyer interface generates cache keys for the three cacheable
// stages: history extraction, layout computation, and artifact rendering.
// Each key embeds the relevant options so that changing an option never
// serves a stale result.
package cache

import (
	"context"
	"time"
)

// Default TTLs per stage. History entries are keyed by repository state,
// so they only go stale when refs move and a short TTL suffices. Layouts
// and artifacts are keyed by content hash and can live longer.
const (
	TTLHistory  = 15 * time.Minute
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is the interface for cache storage backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// HistoryKeyOpts are the options that affect history extraction.
type HistoryKeyOpts struct {
	Remotes bool `json:"remotes"`
}

// LayoutKeyOpts are the options that affect layout computation.
type LayoutKeyOpts struct {
	TieBreak    string `json:"tie_break"`
	GitHubLinks bool   `json:"github_links"`
}

// ArtifactKeyOpts are the options that affect artifact rendering.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Title      string  `json:"title"`
	Scale      float64 `json:"scale"`
	Detailed   bool    `json:"detailed"`
	HashLabels bool    `json:"hash_labels"`
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// HistoryKey generates a key for extracted history.
	// The state string identifies the repository state (ref tips and
	// reflog positions), so any ref movement produces a fresh key.
	HistoryKey(state string, opts HistoryKeyOpts) string

	// LayoutKey generates a key for a computed layout document.
	// historyHash is the hash of the serialized history snapshot.
	LayoutKey(historyHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	// layoutHash is the hash of the serialized layout document.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates keys by hashing the inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HistoryKey generates a key for extracted history.
func (k *DefaultKeyer) HistoryKey(state string, opts HistoryKeyOpts) string {
	return hashKey("history", state, opts)
}

// LayoutKey generates a key for a computed layout document.
func (k *DefaultKeyer) LayoutKey(historyHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", historyHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
