package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/mlehnert/railgraph/pkg/cache"
	"github.com/mlehnert/railgraph/pkg/gitsource"
	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/history/timeline"
	"github.com/mlehnert/railgraph/pkg/layout"
)

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// testSnapshot builds a two-commit snapshot with one ref and one tag,
// bypassing the git layer.
func testSnapshot(t *testing.T) *gitsource.Snapshot {
	t.Helper()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	g := history.New()
	add := func(hash string, when time.Time, msg string, parents ...history.Hash) {
		sig := history.Signature{Name: "Ada", Email: "ada@example.org", When: when}
		err := g.Add(history.Commit{
			Hash:      history.Hash(hash),
			Parents:   parents,
			Author:    sig,
			Committer: sig,
			Message:   history.ParseMessage(msg),
		})
		if err != nil {
			t.Fatalf("add %s: %v", hash, err)
		}
	}
	add("aaa1111", base, "feat: start the line")
	add("bbb2222", base.Add(time.Minute), "fix: straighten the rails", "aaa1111")

	return &gitsource.Snapshot{
		Graph: g,
		Logs: []timeline.RefLog{{
			Name: "main",
			Tip:  "bbb2222",
			Moves: []timeline.Move{
				{Hash: "aaa1111", At: base},
				{Hash: "bbb2222", At: base.Add(time.Minute)},
			},
		}},
		Tags: []gitsource.Tag{{Name: "v0.1.0", Hash: "bbb2222"}},
		Head: "main",
		Slug: "ada/widgets",
	}
}

func testOptions() Options {
	return Options{
		RepoPath:    ".",
		GitHubLinks: true,
		Now:         time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
		Logger:      discardLogger(),
	}
}

func TestGenerateDocument(t *testing.T) {
	snap := testSnapshot(t)
	opts := testOptions()
	opts.SetLayoutDefaults()

	doc, err := GenerateDocument(snap, opts)
	if err != nil {
		t.Fatalf("GenerateDocument: %v", err)
	}

	if doc.Repo != "ada/widgets" {
		t.Errorf("Repo = %q, want ada/widgets", doc.Repo)
	}
	if len(doc.Commits) != 2 {
		t.Fatalf("Commits = %d, want 2", len(doc.Commits))
	}
	if doc.Lanes != 1 {
		t.Errorf("Lanes = %d, want 1", doc.Lanes)
	}
	if len(doc.Refs) != 1 || doc.Refs[0].Name != "main" || doc.Refs[0].Hash != "bbb2222" {
		t.Errorf("Refs = %+v, want main at bbb2222", doc.Refs)
	}
	if len(doc.Tags) != 1 || doc.Tags[0].Name != "v0.1.0" {
		t.Errorf("Tags = %+v, want v0.1.0", doc.Tags)
	}
	if !doc.GeneratedAt.Equal(opts.Now) {
		t.Errorf("GeneratedAt = %v, want %v", doc.GeneratedAt, opts.Now)
	}
	tip, ok := doc.Commit("bbb2222")
	if !ok || tip.Ref != "main" {
		t.Errorf("tip commit should ride the main rail, got %+v", tip)
	}
}

func TestRunnerLayoutCaching(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, discardLogger())
	defer r.Close()

	snap := testSnapshot(t)
	opts := testOptions()

	doc1, hit, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil {
		t.Fatalf("first layout: %v", err)
	}
	if hit {
		t.Error("first layout should miss the cache")
	}

	doc2, hit, err := r.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil {
		t.Fatalf("second layout: %v", err)
	}
	if !hit {
		t.Error("second layout should hit the cache")
	}
	if !reflect.DeepEqual(doc1.Commits, doc2.Commits) || !reflect.DeepEqual(doc1.Segments, doc2.Segments) {
		t.Error("cached document should match the computed one")
	}

	// Refresh bypasses the cache
	opts.Refresh = true
	_, hit, err = r.LayoutWithCacheInfo(ctx, snap, opts)
	if err != nil {
		t.Fatalf("refresh layout: %v", err)
	}
	if hit {
		t.Error("refresh should bypass the cache")
	}
}

func TestRunnerRenderFormats(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, discardLogger())
	defer r.Close()

	snap := testSnapshot(t)
	opts := testOptions()
	opts.Formats = []string{FormatSVG, FormatHTML, FormatDOT, FormatJSON}
	opts.Title = "widgets"

	doc, err := r.Layout(ctx, snap, opts)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	artifacts, err := r.Render(ctx, doc, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(string(artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact should contain an svg element")
	}
	if !strings.Contains(string(artifacts[FormatHTML]), "railway_svg") {
		t.Error("html artifact should embed the railway svg")
	}
	if !strings.Contains(string(artifacts[FormatHTML]), "<title>widgets</title>") {
		t.Error("html artifact should carry the configured title")
	}
	if !strings.Contains(string(artifacts[FormatDOT]), "digraph railway") {
		t.Error("dot artifact should contain the digraph")
	}
	parsed, err := layout.Read(bytes.NewReader(artifacts[FormatJSON]))
	if err != nil {
		t.Fatalf("json artifact should round-trip: %v", err)
	}
	if len(parsed.Commits) != len(doc.Commits) {
		t.Error("json artifact should carry all commits")
	}
}

func TestRunnerRenderCaching(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, discardLogger())
	defer r.Close()

	snap := testSnapshot(t)
	opts := testOptions()
	opts.Formats = []string{FormatSVG}

	doc, err := r.Layout(ctx, snap, opts)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}

	first, hit, err := r.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	if hit {
		t.Error("first render should miss the cache")
	}

	second, hit, err := r.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !hit {
		t.Error("second render should hit the cache")
	}
	if !bytes.Equal(first[FormatSVG], second[FormatSVG]) {
		t.Error("cached artifact should match the rendered one")
	}
}

func TestRenderNodelinkRejectsHTML(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, discardLogger())
	defer r.Close()

	snap := testSnapshot(t)
	opts := testOptions()
	opts.View = ViewNodelink
	opts.Formats = []string{FormatHTML}

	doc, err := r.Layout(ctx, snap, opts)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if _, err := r.Render(ctx, doc, opts); err == nil {
		t.Error("nodelink view should reject the html format")
	}
}

// initTestRepo builds a real two-commit repository on disk.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for _, msg := range []string{"feat: start the line", "fix: straighten the rails"} {
		clock = clock.Add(time.Minute)
		path := filepath.Join(dir, "notes.txt")
		if err := os.WriteFile(path, []byte(msg+"\n"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		if _, err := wt.Add("notes.txt"); err != nil {
			t.Fatalf("add: %v", err)
		}
		sig := &object.Signature{Name: "Ada", Email: "ada@example.org", When: clock}
		if _, err := wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	return dir
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, discardLogger())
	defer r.Close()

	opts := testOptions()
	opts.RepoPath = initTestRepo(t)
	opts.Formats = []string{FormatSVG, FormatJSON}

	result, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.CommitCount != 2 {
		t.Errorf("CommitCount = %d, want 2", result.Stats.CommitCount)
	}
	if result.Stats.RefCount != 1 {
		t.Errorf("RefCount = %d, want 1", result.Stats.RefCount)
	}
	if result.Stats.LaneCount != 1 {
		t.Errorf("LaneCount = %d, want 1", result.Stats.LaneCount)
	}
	if len(result.DocumentHash) != 64 {
		t.Errorf("DocumentHash length = %d, want 64", len(result.DocumentHash))
	}
	if len(result.Artifacts[FormatSVG]) == 0 || len(result.Artifacts[FormatJSON]) == 0 {
		t.Error("Execute should produce all requested artifacts")
	}
	if result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Error("first run should not hit any cache")
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, discardLogger())
	defer r.Close()

	if _, err := r.Execute(context.Background(), Options{}); err == nil {
		t.Error("Execute without repo_path should fail")
	}
}

func TestExecuteNotARepository(t *testing.T) {
	r := NewRunner(nil, nil, discardLogger())
	defer r.Close()

	opts := testOptions()
	opts.RepoPath = t.TempDir()
	if _, err := r.Execute(context.Background(), opts); err == nil {
		t.Error("Execute on a plain directory should fail")
	}
}
