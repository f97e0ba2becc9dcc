package pipeline

import (
	"fmt"

	"github.com/mlehnert/railgraph/pkg/gitsource"
	"github.com/mlehnert/railgraph/pkg/history/order"
	"github.com/mlehnert/railgraph/pkg/history/timeline"
	"github.com/mlehnert/railgraph/pkg/layout"
	"github.com/mlehnert/railgraph/pkg/rails"
)

// =============================================================================
// Document Generation
// =============================================================================

// GenerateDocument turns a repository snapshot into a layout document.
// This is the unified entry point for the layout stage: it orders the
// commits, reconstructs the per-ref timelines, assigns rails, and attaches
// the snapshot's ref and tag labels.
func GenerateDocument(snap *gitsource.Snapshot, opts Options) (layout.Document, error) {
	seq, err := order.Sort(snap.Graph)
	if err != nil {
		return layout.Document{}, fmt.Errorf("order commits: %w", err)
	}

	tls := timeline.Reconstruct(snap.Graph, snap.Logs, timeline.WithWorkers(opts.Workers))

	l, err := rails.Assign(snap.Graph, seq, tls, opts.RailOptions(snap.Head)...)
	if err != nil {
		return layout.Document{}, fmt.Errorf("assign rails: %w", err)
	}

	buildOpts := []layout.Option{
		layout.WithRefs(refLabels(snap.Logs)),
		layout.WithTags(tagLabels(snap.Tags)),
	}
	if opts.GitHubLinks && snap.Slug != "" {
		buildOpts = append(buildOpts, layout.WithRepo(snap.Slug))
	}
	if !opts.Now.IsZero() {
		buildOpts = append(buildOpts, layout.WithGeneratedAt(opts.Now))
	}

	doc, err := layout.Build(snap.Graph, l, buildOpts...)
	if err != nil {
		return layout.Document{}, fmt.Errorf("build document: %w", err)
	}
	return doc, nil
}

// refLabels converts ref logs to document labels, one per ref tip.
func refLabels(logs []timeline.RefLog) []layout.Label {
	if len(logs) == 0 {
		return nil
	}
	labels := make([]layout.Label, len(logs))
	for i, l := range logs {
		labels[i] = layout.Label{Name: l.Name, Hash: string(l.Tip)}
	}
	return labels
}

// tagLabels converts resolved tags to document labels.
func tagLabels(tags []gitsource.Tag) []layout.Label {
	if len(tags) == 0 {
		return nil
	}
	labels := make([]layout.Label, len(tags))
	for i, t := range tags {
		labels[i] = layout.Label{Name: t.Name, Hash: string(t.Hash)}
	}
	return labels
}
