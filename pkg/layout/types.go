package layout

import (
	"fmt"
	"time"

	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/rails"
)

// =============================================================================
// Constants
// =============================================================================

// Version is the current document schema version. Readers reject documents
// written by a newer schema.
const Version = 1

// Segment kind labels used in serialized documents.
const (
	KindContinue = "continue"
	KindBranch   = "branch"
	KindConverge = "converge"
)

// =============================================================================
// Document - Railway Layout Serialization
// =============================================================================

// Document is the canonical serialization format for a railway layout.
// Used for file export, caching, and the preview server's API responses.
//
// Commits appear in visiting order (top to bottom on the rendered page) and
// carry everything a renderer needs; segments reference commits by hash.
type Document struct {
	Version     int       `json:"version"`
	Repo        string    `json:"repo,omitempty"` // owner/name slug when known
	GeneratedAt time.Time `json:"generated_at"`
	Lanes       int       `json:"lanes"`
	Commits     []Commit  `json:"commits"`
	Segments    []Segment `json:"segments"`
	Refs        []Label   `json:"refs,omitempty"`
	Tags        []Label   `json:"tags,omitempty"`
}

// Label pins a ref or tag name to the commit it currently points at.
type Label struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// Commit is one placed commit with its rail position and display metadata.
type Commit struct {
	Hash     string    `json:"hash"`
	Short    string    `json:"short"`
	Parents  []string  `json:"parents,omitempty"`
	Index    int       `json:"index"`
	Rail     int       `json:"rail"`
	Ref      string    `json:"ref,omitempty"`
	Author   string    `json:"author,omitempty"`
	Email    string    `json:"email,omitempty"`
	At       time.Time `json:"at"`
	Type     string    `json:"type,omitempty"`
	Scope    string    `json:"scope,omitempty"`
	Title    string    `json:"title"`
	Body     string    `json:"body,omitempty"`
	Merge    bool      `json:"merge,omitempty"`
	Breaking bool      `json:"breaking,omitempty"`
}

// Segment is one drawn edge between two placed commits.
type Segment struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Rail      int    `json:"rail"`
	Ref       string `json:"ref,omitempty"`
	Kind      string `json:"kind"`
	Ambiguous bool   `json:"ambiguous,omitempty"`
}

// Commit returns the commit with the given hash, if present.
func (d *Document) Commit(hash string) (Commit, bool) {
	for _, c := range d.Commits {
		if c.Hash == hash {
			return c, true
		}
	}
	return Commit{}, false
}

// =============================================================================
// Layout ↔ Document Conversion
// =============================================================================

// Option configures [Build].
type Option func(*Document)

// WithRepo records the repository slug on the document.
func WithRepo(slug string) Option {
	return func(d *Document) { d.Repo = slug }
}

// WithGeneratedAt overrides the generation timestamp, which defaults to the
// current time. Useful for reproducible output.
func WithGeneratedAt(t time.Time) Option {
	return func(d *Document) { d.GeneratedAt = t }
}

// WithRefs records the current branch tips on the document.
func WithRefs(refs []Label) Option {
	return func(d *Document) { d.Refs = refs }
}

// WithTags records the current tags on the document.
func WithTags(tags []Label) Option {
	return func(d *Document) { d.Tags = tags }
}

// Build converts a computed layout and its graph into a document. Every
// commit the layout places must exist in the graph.
func Build(g *history.Graph, l *rails.Layout, opts ...Option) (Document, error) {
	d := Document{
		Version:     Version,
		GeneratedAt: time.Now().UTC(),
		Lanes:       l.Lanes,
		Commits:     make([]Commit, 0, len(l.Stops)),
		Segments:    make([]Segment, 0, len(l.Segments)),
	}
	for _, opt := range opts {
		opt(&d)
	}

	for _, s := range l.Stops {
		c, ok := g.Commit(s.Hash)
		if !ok {
			return Document{}, fmt.Errorf("layout places unknown commit %s", s.Hash)
		}
		var parents []string
		for _, p := range c.Parents {
			parents = append(parents, string(p))
		}
		d.Commits = append(d.Commits, Commit{
			Hash:     string(c.Hash),
			Short:    c.Hash.Short(),
			Parents:  parents,
			Index:    s.Index,
			Rail:     s.Rail,
			Ref:      s.Ref,
			Author:   c.Author.Name,
			Email:    c.Author.Email,
			At:       c.CommittedAt(),
			Type:     c.Message.Type,
			Scope:    c.Message.Scope,
			Title:    c.Message.Title,
			Body:     c.Message.Body,
			Merge:    c.IsMerge(),
			Breaking: c.Message.Breaking,
		})
	}

	for _, s := range l.Segments {
		d.Segments = append(d.Segments, Segment{
			From:      string(s.From),
			To:        string(s.To),
			Rail:      s.Rail,
			Ref:       s.Ref,
			Kind:      s.Kind.String(),
			Ambiguous: s.Ambiguous,
		})
	}

	return d, nil
}
