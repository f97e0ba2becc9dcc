package history

import "strings"

// Message is the structured view of a commit message. The first line is
// parsed as a conventional-commit header ("type(scope): title") when it has
// that shape; otherwise Type and Scope are empty and Title carries the whole
// summary line.
type Message struct {
	Type     string
	Scope    string
	Title    string
	Body     string
	Breaking bool
}

// Summary returns the original first line of the message.
func (m Message) Summary() string {
	if m.Type == "" {
		return m.Title
	}
	if m.Scope != "" {
		return m.Type + "(" + m.Scope + "): " + m.Title
	}
	return m.Type + ": " + m.Title
}

// ParseMessage splits a raw commit message into its structured form.
//
// The summary line is treated as a conventional-commit header only when the
// text before ": " is a single word, optionally followed by a parenthesised
// scope. "fix(rails): close freed lanes" parses into type "fix", scope
// "rails"; "Merge branch 'feature'" stays a plain title.
func ParseMessage(raw string) Message {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	summary, body, _ := strings.Cut(raw, "\n")
	summary = strings.TrimSpace(summary)
	body = strings.TrimSpace(body)

	m := Message{Title: summary, Body: body}
	m.Breaking = strings.Contains(raw, "BREAKING CHANGE: ")

	header, _, found := strings.Cut(summary, ": ")
	if !found {
		return m
	}
	typ, scope, _ := strings.Cut(strings.TrimSuffix(header, ")"), "(")
	if strings.Contains(typ, " ") {
		return m
	}

	m.Type = typ
	m.Scope = scope
	m.Title = strings.TrimSpace(summary[len(header)+2:])
	return m
}
