// Package pkg provides the core libraries for Railgraph history visualization.
//
// # Overview
//
// Railgraph draws a git repository's history as a railway map: one rail per
// branch, reconstructed from the reflog, with merges joining rails and
// uncertain stretches marked as ambiguous. The pkg directory is organized
// around the pipeline stages:
//
//  1. [gitsource] - Repository reading (commits, reflogs, tags via go-git)
//  2. [history] - Commit graph, message parsing, ordering, and timelines
//  3. [rails] - Rail and lane assignment over the ordered history
//  4. [layout] - Canonical JSON document for a computed layout
//  5. [render] - Railway SVG/HTML and Graphviz node-link output
//  6. [pipeline] - Orchestration (extract → layout → render) with caching
//
// # Architecture
//
// The typical data flow through Railgraph:
//
//	Local repository (.git)
//	         ↓
//	    [gitsource] package (commits, reflogs, tags)
//	         ↓
//	    [history/order] package (chrono-topological order)
//	         ↓
//	    [history/timeline] package (per-ref timelines from the reflog)
//	         ↓
//	    [rails] package (rail ownership + lane assignment)
//	         ↓
//	    [layout] package (serializable document)
//	         ↓
//	    [render/railway] or [render/nodelink] package
//	         ↓
//	    SVG/HTML/PNG/PDF/DOT/JSON output
//
// # Quick Start
//
// Run the full pipeline against a repository:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    RepoPath: ".",
//	    Formats:  []string{"html"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("railway.html", result.Artifacts["html"], 0o644)
//
// Supporting packages: [cache] (file/redis caching), [errors] (structured
// error codes), [observability] (pipeline hooks), [buildinfo] (version
// metadata).
package pkg
