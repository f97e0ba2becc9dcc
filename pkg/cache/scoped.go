package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The preview server uses this to keep cache entries from different
// repositories in separate namespaces.
//
// Example usage:
//
//	// Repository-specific keys
//	repoKeyer := NewScopedKeyer(NewDefaultKeyer(), "repo:ada/widgets:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HistoryKey generates a prefixed key for history caching.
func (k *ScopedKeyer) HistoryKey(state string, opts HistoryKeyOpts) string {
	return k.prefix + k.inner.HistoryKey(state, opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(historyHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(historyHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
