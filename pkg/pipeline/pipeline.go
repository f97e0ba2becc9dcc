// Package pipeline provides the core visualization pipeline for Railgraph.
//
// This package implements the complete extract → layout → render pipeline
// that can be used by CLI and server components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Extract: Read commits, reflogs, and tags from a local git repository
//  2. Layout: Order commits and assign rails, producing a layout document
//  3. Render: Generate output in various formats (SVG, HTML, PNG, PDF, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    RepoPath: ".",
//	    Formats:  []string{"html"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	page := result.Artifacts["html"]
//
// Run individual stages:
//
//	// Extract only
//	snap, err := runner.Extract(ctx, opts)
//
//	// Layout with existing snapshot
//	doc, err := runner.Layout(ctx, snap, opts)
//
//	// Render with existing document
//	artifacts, err := runner.Render(ctx, doc, opts)
package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mlehnert/railgraph/pkg/cache"
	"github.com/mlehnert/railgraph/pkg/gitsource"
	"github.com/mlehnert/railgraph/pkg/layout"
	"github.com/mlehnert/railgraph/pkg/rails"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultScale is the default SVG display scale.
	DefaultScale = 1.5

	// DefaultTieBreak is the default rail ownership tie-break rule.
	DefaultTieBreak = TieBreakName
)

// DefaultWorkers returns the default worker count for timeline reconstruction.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// View constants for visualization types.
const (
	ViewRailway  = "railway"
	ViewNodelink = "nodelink"
)

// DefaultView is the default visualization type.
const DefaultView = ViewRailway

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// TieBreak constants for rail ownership ties between refs whose reflogs
// claim the same commit at the same instant.
const (
	// TieBreakName prefers the lexicographically smaller ref name.
	TieBreakName = "name"
	// TieBreakHead prefers the currently checked-out branch.
	TieBreakHead = "head"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatHTML: true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// ValidViews is the set of supported visualization types.
var ValidViews = map[string]bool{
	ViewRailway:  true,
	ViewNodelink: true,
}

// ValidTieBreaks is the set of supported tie-break rules.
var ValidTieBreaks = map[string]bool{
	TieBreakName: true,
	TieBreakHead: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Extract options
	RepoPath string `json:"repo_path"`
	Remotes  bool   `json:"remotes,omitempty"` // Include untracked remote branches
	Workers  int    `json:"workers,omitempty"` // Timeline reconstruction parallelism
	Refresh  bool   `json:"refresh,omitempty"` // Bypass the layout and artifact caches

	// Layout options
	TieBreak    string `json:"tie_break,omitempty"`
	GitHubLinks bool   `json:"github_links,omitempty"` // Embed the GitHub slug for commit and issue links

	// Render options
	View       string   `json:"view,omitempty"`
	Formats    []string `json:"formats,omitempty"`
	Title      string   `json:"title,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"`    // Verbose node labels in nodelink view
	HideHashes bool     `json:"hide_hashes,omitempty"` // Omit the hash gutter in railway SVG

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Now    time.Time   `json:"-"` // Reference time for relative dates; zero means time.Now

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the extracted repository state.
	Snapshot *gitsource.Snapshot

	// Document is the computed layout document.
	Document layout.Document

	// DocumentHash is the content hash of the serialized document.
	DocumentHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CommitCount int
	RefCount    int
	LaneCount   int
	ExtractTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
// Extraction reads the local repository directly and is never cached.
type CacheInfo struct {
	LayoutHit bool // Whether the layout document came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, html, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateView checks that a visualization type is valid.
func ValidateView(view string) error {
	if !ValidViews[view] {
		return fmt.Errorf("invalid view: %q (must be one of: railway, nodelink)", view)
	}
	return nil
}

// ValidateTieBreak checks that a tie-break rule is valid.
func ValidateTieBreak(tieBreak string) error {
	if !ValidTieBreaks[tieBreak] {
		return fmt.Errorf("invalid tie_break: %q (must be one of: name, head)", tieBreak)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForExtract(); err != nil {
		return err
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForExtract checks required fields for history extraction.
func (o *Options) ValidateForExtract() error {
	if o.RepoPath == "" {
		return fmt.Errorf("repo_path is required")
	}

	// Extract defaults
	if o.Workers == 0 {
		o.Workers = DefaultWorkers()
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.TieBreak == "" {
		o.TieBreak = DefaultTieBreak
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return ValidateTieBreak(o.TieBreak)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.View == "" {
		o.View = DefaultView
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateView(o.View); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// IsRailway returns true if this is a railway visualization.
func (o *Options) IsRailway() bool {
	return o.View == "" || o.View == ViewRailway
}

// IsNodelink returns true if this is a nodelink visualization.
func (o *Options) IsNodelink() bool {
	return o.View == ViewNodelink
}

// RefTieBreak returns the rail assignment tie-break rule as a comparison
// function. head is the current branch name, used by TieBreakHead.
func (o *Options) RefTieBreak(head string) func(a, b string) bool {
	if o.TieBreak == TieBreakHead && head != "" {
		return func(a, b string) bool {
			if a == head {
				return b != head
			}
			if b == head {
				return false
			}
			return a < b
		}
	}
	return nil // rails uses lexicographic order by default
}

// RailOptions returns the rails assignment options for this configuration.
func (o *Options) RailOptions(head string) []rails.Option {
	if less := o.RefTieBreak(head); less != nil {
		return []rails.Option{rails.WithRefTieBreak(less)}
	}
	return nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		TieBreak:    o.TieBreak,
		GitHubLinks: o.GitHubLinks,
	}
}

// HistoryKeyOpts returns cache key options for history extraction.
func (o *Options) HistoryKeyOpts() cache.HistoryKeyOpts {
	return cache.HistoryKeyOpts{
		Remotes: o.Remotes,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Title:      o.Title,
		Scale:      o.Scale,
		Detailed:   o.Detailed,
		HashLabels: !o.HideHashes,
	}
}
