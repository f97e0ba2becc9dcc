package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mlehnert/railgraph/pkg/cache"
	"github.com/mlehnert/railgraph/pkg/gitsource"
	"github.com/mlehnert/railgraph/pkg/layout"
	"github.com/mlehnert/railgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete extract → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	runID := uuid.NewString()
	logger := r.Logger.With("run", runID[:8])

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Extract
	extractStart := time.Now()
	observability.Pipeline().OnExtractStart(ctx, opts.RepoPath)
	snap, err := r.Extract(ctx, opts)
	result.Stats.ExtractTime = time.Since(extractStart)
	if err != nil {
		observability.Pipeline().OnExtractComplete(ctx, opts.RepoPath, 0, result.Stats.ExtractTime, err)
		return nil, fmt.Errorf("extract: %w", err)
	}
	result.Snapshot = snap
	result.Stats.CommitCount = snap.Graph.Len()
	result.Stats.RefCount = len(snap.Logs)
	observability.Pipeline().OnExtractComplete(ctx, opts.RepoPath, snap.Graph.Len(), result.Stats.ExtractTime, nil)

	logger.Info("extracted history",
		"commits", snap.Graph.Len(),
		"refs", len(snap.Logs),
		"tags", len(snap.Tags),
		"duration", result.Stats.ExtractTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, opts.RepoPath, snap.Graph.Len())
	doc, layoutHit, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, opts.RepoPath, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Document = doc
	result.Stats.LaneCount = doc.Lanes
	result.CacheInfo.LayoutHit = layoutHit

	// Compute document hash for cache keys and server responses
	if docData, err := layout.Marshal(doc); err == nil {
		result.DocumentHash = cache.Hash(docData)
	}

	logger.Info("computed layout",
		"lanes", doc.Lanes,
		"segments", len(doc.Segments),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, doc, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Extract reads the repository state for opts.RepoPath.
// Extraction always hits the local repository; it is never cached.
func (r *Runner) Extract(ctx context.Context, opts Options) (*gitsource.Snapshot, error) {
	if err := opts.ValidateForExtract(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	repo, err := gitsource.Open(opts.RepoPath)
	if err != nil {
		return nil, err
	}

	var loadOpts []gitsource.Option
	if opts.Remotes {
		loadOpts = append(loadOpts, gitsource.WithRemotes())
	}
	return repo.Load(loadOpts...)
}

// LayoutWithCacheInfo computes the layout document with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, snap *gitsource.Snapshot, opts Options) (layout.Document, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return layout.Document{}, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from the repository state
	historyKey := r.Keyer.HistoryKey(snapshotState(snap), opts.HistoryKeyOpts())
	cacheKey := r.Keyer.LayoutKey(historyKey, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "layout")
			cached, err := layout.Read(bytes.NewReader(data))
			if err == nil {
				return cached, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		} else {
			observability.Cache().OnCacheMiss(ctx, "layout")
		}
	}

	// Compute layout
	doc, err := GenerateDocument(snap, opts)
	if err != nil {
		return layout.Document{}, false, err
	}

	// Cache the result
	if data, err := layout.Marshal(doc); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return doc, false, nil // Cache miss
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, snap *gitsource.Snapshot, opts Options) (layout.Document, error) {
	doc, _, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	return doc, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc layout.Document, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from document content
	docData, err := layout.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("serialize document for cache key: %w", err)
	}
	docHash := cache.Hash(docData)

	// Try to get all formats from cache (unless refresh requested)
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		allCached := true
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
			} else {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := RenderFromDocument(doc, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, doc layout.Document, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, doc, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// snapshotState fingerprints a snapshot for cache keys. Any ref movement,
// tag change, or HEAD switch produces a different state string.
func snapshotState(snap *gitsource.Snapshot) string {
	var b bytes.Buffer
	b.WriteString(snap.Head)
	for _, l := range snap.Logs {
		b.WriteByte(0)
		b.WriteString(l.Name)
		b.WriteString(string(l.Tip))
		for _, m := range l.Moves {
			b.WriteString(string(m.Hash))
			b.WriteString(strconv.FormatInt(m.At.Unix(), 10))
		}
	}
	tags := make([]gitsource.Tag, len(snap.Tags))
	copy(tags, snap.Tags)
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	for _, t := range tags {
		b.WriteByte(0)
		b.WriteString(t.Name)
		b.WriteString(string(t.Hash))
	}
	return cache.Hash(b.Bytes())
}
