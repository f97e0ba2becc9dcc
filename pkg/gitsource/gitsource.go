package gitsource

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/history/timeline"
)

// ErrNotARepository is returned by [Open] when the path is not inside a git
// repository.
var ErrNotARepository = errors.New("not a git repository")

// Tag is a tag name resolved to the commit it points at. Annotated tags are
// peeled to their target commit.
type Tag struct {
	Name string
	Hash history.Hash
}

// Snapshot is everything the layout pipeline needs from one repository
// state: the commit graph, the per-ref move logs, resolved tags, and a
// little identity metadata.
type Snapshot struct {
	Graph *history.Graph
	Logs  []timeline.RefLog
	Tags  []Tag

	// Head is the current branch's short name, empty when detached.
	Head string
	// Slug is the owner/name pair of a GitHub remote, when one is
	// configured. Used for issue linkification.
	Slug string
}

// Option configures [Repository.Load].
type Option func(*loadConfig)

type loadConfig struct {
	remotes bool
}

// WithRemotes includes remote-tracking refs that no local branch tracks.
// The <remote>/HEAD pointer is always skipped.
func WithRemotes() Option {
	return func(c *loadConfig) { c.remotes = true }
}

// Repository is an open git repository.
type Repository struct {
	repo *git.Repository
	// logfs is the .git directory, used to read reflog files. Nil for
	// storage backends without one; reflogs are then unavailable.
	logfs billy.Filesystem
}

// Open opens the repository containing path, searching parent directories
// for the .git directory the way the git CLI does.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	r := &Repository{repo: repo}
	if st, ok := repo.Storer.(*filesystem.Storage); ok {
		r.logfs = st.Filesystem()
	}
	return r, nil
}

// Slug returns the owner/name pair of the first GitHub remote URL, or the
// empty string when none is configured.
func (r *Repository) Slug() string {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return ""
	}
	for _, remote := range remotes {
		for _, url := range remote.Config().URLs {
			if slug := githubSlug(url); slug != "" {
				return slug
			}
		}
	}
	return ""
}

// githubSlug extracts owner/name from the https, ssh, and scp-like forms of
// a GitHub remote URL.
func githubSlug(url string) string {
	const host = "github.com"
	i := strings.Index(url, host)
	if i < 0 {
		return ""
	}
	rest := url[i+len(host):]
	if len(rest) < 2 || (rest[0] != '/' && rest[0] != ':') {
		return ""
	}
	slug := strings.TrimSuffix(strings.Trim(rest[1:], "/"), ".git")
	if strings.Count(slug, "/") != 1 {
		return ""
	}
	return slug
}

// Load reads the repository into a snapshot. Commits reachable from any
// branch, tag, or included remote ref are collected; reflog entries that
// point at pruned commits are dropped.
func (r *Repository) Load(opts ...Option) (*Snapshot, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	refs, err := r.collectRefs(cfg)
	if err != nil {
		return nil, err
	}
	tags, err := r.collectTags()
	if err != nil {
		return nil, err
	}

	tips := make([]plumbing.Hash, 0, len(refs)+len(tags))
	for _, ref := range refs {
		tips = append(tips, ref.tip)
	}
	for _, t := range tags {
		tips = append(tips, plumbing.NewHash(string(t.Hash)))
	}

	g, err := r.walk(tips)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Graph: g,
		Logs:  make([]timeline.RefLog, 0, len(refs)),
		Tags:  tags,
		Slug:  r.Slug(),
	}
	if head, err := r.repo.Head(); err == nil && head.Name().IsBranch() {
		snap.Head = head.Name().Short()
	}

	for _, ref := range refs {
		moves, err := r.readReflog(ref.name)
		if err != nil {
			return nil, fmt.Errorf("reading reflog for %s: %w", ref.name.Short(), err)
		}
		log := timeline.RefLog{Name: ref.name.Short(), Tip: history.Hash(ref.tip.String())}
		for _, m := range moves {
			if _, ok := g.Commit(m.Hash); ok {
				log.Moves = append(log.Moves, m)
			}
		}
		snap.Logs = append(snap.Logs, log)
	}

	return snap, nil
}

type refTip struct {
	name plumbing.ReferenceName
	tip  plumbing.Hash
}

// collectRefs lists local branches, plus untracked remote-tracking refs
// when enabled. Remote refs tracked by a local branch would duplicate its
// rail, so they are left out.
func (r *Repository) collectRefs(cfg loadConfig) ([]refTip, error) {
	var refs []refTip

	branches, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, refTip{name: ref.Name(), tip: ref.Hash()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating branches: %w", err)
	}

	if cfg.remotes {
		tracked, err := r.trackedRemoteRefs()
		if err != nil {
			return nil, err
		}
		all, err := r.repo.References()
		if err != nil {
			return nil, fmt.Errorf("listing references: %w", err)
		}
		err = all.ForEach(func(ref *plumbing.Reference) error {
			name := ref.Name()
			if !name.IsRemote() || strings.HasSuffix(name.Short(), "/HEAD") || tracked[name] {
				return nil
			}
			hash, err := r.resolve(ref)
			if err != nil {
				return err
			}
			refs = append(refs, refTip{name: name, tip: hash})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("iterating remote refs: %w", err)
		}
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].name < refs[j].name })
	return refs, nil
}

// trackedRemoteRefs maps the remote-tracking refs that some local branch is
// configured to track.
func (r *Repository) trackedRemoteRefs() (map[plumbing.ReferenceName]bool, error) {
	conf, err := r.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	tracked := make(map[plumbing.ReferenceName]bool)
	for _, b := range conf.Branches {
		if b.Remote == "" || b.Merge == "" {
			continue
		}
		short := strings.TrimPrefix(string(b.Merge), "refs/heads/")
		tracked[plumbing.NewRemoteReferenceName(b.Remote, short)] = true
	}
	return tracked, nil
}

func (r *Repository) collectTags() ([]Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash, err := r.resolve(ref)
		if err != nil {
			return err
		}
		tags = append(tags, Tag{Name: ref.Name().Short(), Hash: history.Hash(hash.String())})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// resolve peels a reference to the commit it points at, following annotated
// tag objects.
func (r *Repository) resolve(ref *plumbing.Reference) (plumbing.Hash, error) {
	hash := ref.Hash()
	if tag, err := r.repo.TagObject(hash); err == nil {
		commit, err := tag.Commit()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("peeling tag %s: %w", ref.Name().Short(), err)
		}
		return commit.Hash, nil
	}
	return hash, nil
}

// walk collects every commit reachable from the tips into a graph.
func (r *Repository) walk(tips []plumbing.Hash) (*history.Graph, error) {
	g := history.New()
	pending := append([]plumbing.Hash(nil), tips...)
	seen := make(map[plumbing.Hash]bool, len(tips))

	for len(pending) > 0 {
		hash := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if seen[hash] {
			continue
		}
		seen[hash] = true

		c, err := r.repo.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("reading commit %s: %w", hash, err)
		}
		if err := g.Add(convert(c)); err != nil {
			return nil, err
		}
		for _, p := range c.ParentHashes {
			if !seen[p] {
				pending = append(pending, p)
			}
		}
	}
	return g, nil
}

func convert(c *object.Commit) history.Commit {
	parents := make([]history.Hash, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = history.Hash(p.String())
	}
	return history.Commit{
		Hash:      history.Hash(c.Hash.String()),
		Parents:   parents,
		Author:    history.Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer: history.Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:   history.ParseMessage(c.Message),
	}
}
