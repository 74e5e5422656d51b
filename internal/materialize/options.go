package materialize

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/gerunddev/mdirtree/internal/logger"
)

// Policy decides what happens when a path already exists with a
// different kind or content
type Policy string

const (
	Skip      Policy = "skip"
	Overwrite Policy = "overwrite"
	Fail      Policy = "fail"
)

// ParsePolicy validates a policy name; the empty string means skip
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Skip, nil
	case Skip, Overwrite, Fail:
		return p, nil
	default:
		return "", fmt.Errorf("invalid conflict policy %q: must be one of: skip, overwrite, fail", s)
	}
}

// Options controls a materialize run. The zero value is usable: skip
// policy, missing parents created, 0755/0644, the OS filesystem.
type Options struct {
	OnConflict Policy
	DryRun     bool

	// NoParents requires the parent of the root path to exist already
	// instead of creating missing ancestors
	NoParents bool

	Scaffold bool
	Diff     bool
	DirPerm  os.FileMode
	FilePerm os.FileMode
	Fs       afero.Fs
	Logger   *logger.Logger
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		OnConflict: Skip,
		DirPerm:    0o755,
		FilePerm:   0o644,
	}
}

func (o Options) withDefaults() Options {
	if o.OnConflict == "" {
		o.OnConflict = Skip
	}
	if o.DirPerm == 0 {
		o.DirPerm = 0o755
	}
	if o.FilePerm == 0 {
		o.FilePerm = 0o644
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
	return o
}
