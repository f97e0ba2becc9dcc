package history

import "time"

// Hash identifies a commit. It is the hex form of the repository's object
// hash and is treated as an opaque string everywhere in this module.
type Hash string

// Short returns the abbreviated form of the hash used for display (7
// characters, or the whole hash if it is shorter).
func (h Hash) Short() string {
	if len(h) <= 7 {
		return string(h)
	}
	return string(h[:7])
}

// Signature records who performed an action and when. Author and committer
// signatures are independent: a commit's authored time may predate or
// postdate its committed time.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Display returns the "Name <email>" form of the signature.
func (s Signature) Display() string {
	if s.Email == "" {
		return s.Name
	}
	return s.Name + " <" + s.Email + ">"
}

// Commit is an immutable node in the commit graph.
//
// Parents preserves repository order: the first entry is the mainline parent,
// used to decide which side of a merge continues a branch visually. A child's
// timestamps may be earlier than a parent's; downstream ordering handles that
// anomaly, this type just records what the repository says.
type Commit struct {
	Hash    Hash
	Parents []Hash

	Author    Signature
	Committer Signature

	// Message is the structured view of the commit message, parsed once
	// when the commit is read.
	Message Message
}

// CommittedAt returns the committer timestamp, the time axis used by the
// chrono-topological sorter.
func (c *Commit) CommittedAt() time.Time { return c.Committer.When }

// AuthoredAt returns the author timestamp.
func (c *Commit) AuthoredAt() time.Time { return c.Author.When }

// IsMerge reports whether the commit has more than one parent.
func (c *Commit) IsMerge() bool { return len(c.Parents) > 1 }

// MainlineParent returns the first-listed parent and true, or "" and false
// for a root commit.
func (c *Commit) MainlineParent() (Hash, bool) {
	if len(c.Parents) == 0 {
		return "", false
	}
	return c.Parents[0], true
}
