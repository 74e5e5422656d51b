package materialize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gerunddev/mdirtree/internal/tree"
)

// Outcome tags what happened to a single path
type Outcome string

const (
	Created     Outcome = "created"
	Skipped     Outcome = "skipped"
	Overwritten Outcome = "overwritten"
	Conflict    Outcome = "conflict"
	Failed      Outcome = "failed"
)

// Entry is one line of the operation log
type Entry struct {
	Path    string
	Kind    tree.Kind
	Outcome Outcome
	Reason  string
	Diff    string
}

// Report is the ordered operation log of one materialize run. In a dry
// run it lists what would happen.
type Report struct {
	RunID    string
	Root     string
	DryRun   bool
	Entries  []Entry
	Started  time.Time
	Finished time.Time
}

// Count returns how many entries carry the given outcome
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == o {
			n++
		}
	}
	return n
}

// Changed returns the number of paths created or overwritten
func (r *Report) Changed() int {
	return r.Count(Created) + r.Count(Overwritten)
}

// Conflicts returns the entries left in conflict
func (r *Report) Conflicts() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Outcome == Conflict {
			out = append(out, e)
		}
	}
	return out
}

// String returns a human-readable summary of the run
func (r *Report) String() string {
	var b strings.Builder
	if r.DryRun {
		b.WriteString("Dry run: ")
	} else {
		b.WriteString("Materialized: ")
	}
	fmt.Fprintf(&b, "%d created, %d skipped, %d overwritten, %d conflicts",
		r.Count(Created), r.Count(Skipped), r.Count(Overwritten), r.Count(Conflict))
	if failed := r.Count(Failed); failed > 0 {
		fmt.Fprintf(&b, ", %d failed", failed)
	}
	if !r.Finished.IsZero() {
		fmt.Fprintf(&b, " (took %v)", r.Finished.Sub(r.Started).Round(time.Millisecond))
	}
	return b.String()
}

// ErrConflict marks a conflict that aborted a run under the fail policy
var ErrConflict = errors.New("conflict")

// FilesystemError is an I/O failure that ended a run, or a conflict
// under the fail policy. Work done before it is left in place.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
