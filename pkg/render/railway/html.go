package railway

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"regexp"
	"time"

	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/layout"
)

const pageCSS = `
    body { background: #1f1f1f; color: #dbdbdb; font-family: sans-serif; margin: 0; }
    h1 { font-family: "Ubuntu Mono", monospace; font-size: 16px; padding: 12px 16px; margin: 0; }
    #container { padding: 8px 16px; }
    #popup {
      display: none; position: fixed; max-width: 420px; z-index: 10;
      background: #2d2d2d; border: 1px solid #444; border-radius: 4px;
      padding: 8px 12px; font-size: 13px; pointer-events: none;
    }
    #popup .hash { color: #c9bcbc; font-family: "Ubuntu Mono", monospace; }
    #popup .title { font-weight: bold; margin: 4px 0; }
    #popup .meta { color: #9a9a9a; font-size: 12px; }
    #popup .body { margin-top: 4px; white-space: pre-wrap; }
    .stop { cursor: pointer; }
    a { color: #7cb7ff; }`

const popupJS = `
    const popup = document.getElementById('popup');
    document.querySelectorAll('.stop').forEach(el => {
      el.addEventListener('mousemove', ev => {
        const c = DATA[el.id];
        if (!c) return;
        popup.querySelector('.hash').textContent = c.hash;
        popup.querySelector('.title').innerHTML = (c.type ? c.type + (c.scope ? '(' + c.scope + ')' : '') + ': ' : '') + c.title;
        popup.querySelector('.meta').innerHTML = c.author + ' committed ' + c.committed_delta;
        popup.querySelector('.body').innerHTML = c.body || '';
        popup.style.left = Math.min(ev.clientX + 12, window.innerWidth - 440) + 'px';
        popup.style.top = (ev.clientY + 12) + 'px';
        popup.style.display = 'block';
      });
      el.addEventListener('mouseleave', () => { popup.style.display = 'none'; });
    });`

var issueRe = regexp.MustCompile(`([^\s]+/[^\s#]+)?#([0-9]+)`)

type HTMLOption func(*htmlRenderer)

type htmlRenderer struct {
	title string
	now   time.Time
	svg   []SVGOption
}

// WithTitle sets the page title. Defaults to the repository slug, or
// "railway" when the document has none.
func WithTitle(title string) HTMLOption { return func(r *htmlRenderer) { r.title = title } }

// WithNow fixes the reference time used for the "3 weeks ago" deltas.
func WithNow(now time.Time) HTMLOption { return func(r *htmlRenderer) { r.now = now } }

// WithSVGOptions forwards options to the embedded SVG rendering.
func WithSVGOptions(opts ...SVGOption) HTMLOption {
	return func(r *htmlRenderer) { r.svg = opts }
}

// RenderHTML writes a self-contained page: the SVG diagram plus a hover
// popup backed by an embedded commit lookup table. Issue references in
// commit messages become GitHub links when the document carries a
// repository slug.
func RenderHTML(w io.Writer, d layout.Document, opts ...HTMLOption) error {
	r := htmlRenderer{now: time.Now()}
	for _, opt := range opts {
		opt(&r)
	}
	if r.title == "" {
		r.title = d.Repo
		if r.title == "" {
			r.title = "railway"
		}
	}

	data, err := json.Marshal(popupData(d, r.now))
	if err != nil {
		return fmt.Errorf("encoding commit data: %w", err)
	}

	_, err = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8"/>
<title>%s</title>
<style>%s
</style>
</head>
<body>
<h1>%s</h1>
<div id="container">
%s</div>
<div id="popup"><div class="hash"></div><div class="title"></div><div class="meta"></div><div class="body"></div></div>
<script>
const DATA = %s;
%s
</script>
</body>
</html>
`, escape(r.title), pageCSS, escape(r.title), RenderSVG(d, r.svg...), data, popupJS)
	return err
}

// popupCommit is the per-commit payload embedded in the page. Title and
// body are pre-rendered HTML; everything else is plain text.
type popupCommit struct {
	Hash           string `json:"hash"`
	Author         string `json:"author"`
	Type           string `json:"type,omitempty"`
	Scope          string `json:"scope,omitempty"`
	Title          string `json:"title"`
	Body           string `json:"body,omitempty"`
	CommittedAt    string `json:"committed_at"`
	CommittedDelta string `json:"committed_delta"`
}

func popupData(d layout.Document, now time.Time) map[string]popupCommit {
	out := make(map[string]popupCommit, len(d.Commits))
	for _, c := range d.Commits {
		out[c.Hash] = popupCommit{
			Hash:           c.Short,
			Author:         escape(c.Author),
			Type:           escape(c.Type),
			Scope:          escape(c.Scope),
			Title:          linkifyIssues(c.Title, d.Repo),
			Body:           linkifyIssues(c.Body, d.Repo),
			CommittedAt:    c.At.Format("2006-01-02 15:04:05 -0700"),
			CommittedDelta: history.RelativeTime(c.At, now),
		}
	}
	return out
}

// linkifyIssues turns owner/repo#123 and bare #123 references into GitHub
// issue links. Bare references need a repository slug to resolve against;
// without one they are left as text.
func linkifyIssues(text, slug string) string {
	escaped := escape(text)
	return issueRe.ReplaceAllStringFunc(escaped, func(m string) string {
		groups := issueRe.FindStringSubmatch(m)
		repo, num := groups[1], groups[2]
		label := repo + "#" + num
		if repo == "" {
			if slug == "" {
				return m
			}
			repo = slug
		}
		return fmt.Sprintf(`<a target="_blank" href="https://github.com/%s/issues/%s">%s</a>`, repo, num, label)
	})
}

func escape(s string) string { return html.EscapeString(s) }
