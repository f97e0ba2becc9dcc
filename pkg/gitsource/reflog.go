package gitsource

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/history/timeline"
)

// readReflog reads the move log for a ref from the .git/logs directory.
// A missing log file is not an error: the ref simply has no recorded
// moves, and any history behind its tip stays unconfirmed.
func (r *Repository) readReflog(name plumbing.ReferenceName) ([]timeline.Move, error) {
	if r.logfs == nil {
		return nil, nil
	}
	f, err := r.logfs.Open("logs/" + string(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var moves []timeline.Move
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := parseReflogLine(line)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return moves, nil
}

// parseReflogLine decodes one reflog entry:
//
//	<old-hash> <new-hash> <ident> <unix-time> <zone>\t<message>
//
// Only the new hash and the timestamp matter here; the identity and the
// message are ignored.
func parseReflogLine(line string) (timeline.Move, error) {
	header, _, _ := strings.Cut(line, "\t")
	fields := strings.Fields(header)
	if len(fields) < 4 {
		return timeline.Move{}, fmt.Errorf("malformed reflog entry %q", line)
	}

	hash := fields[1]
	if !plumbing.IsHash(hash) {
		return timeline.Move{}, fmt.Errorf("malformed reflog hash %q", hash)
	}

	// The zone offset is the last header field, the epoch seconds the one
	// before it.
	secs, err := strconv.ParseInt(fields[len(fields)-2], 10, 64)
	if err != nil {
		return timeline.Move{}, fmt.Errorf("malformed reflog timestamp in %q: %w", line, err)
	}

	return timeline.Move{Hash: history.Hash(hash), At: time.Unix(secs, 0).UTC()}, nil
}
