// Package materialize creates the directories and files described by a
// parsed tree.
//
// Nodes are visited in pre-order with children in declaration order, so
// the operation log is reproducible and parents are always handled
// before their children. Pre-existing paths never cause an error unless
// the fail policy is selected; they are recorded as skipped or conflict.
package materialize

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/gerunddev/mdirtree/internal/diff"
	"github.com/gerunddev/mdirtree/internal/scaffold"
	"github.com/gerunddev/mdirtree/internal/tree"
)

// parentState tells a node what is known about its parent directory
type parentState int

const (
	// parentExisted: the parent was already on disk, children must be checked
	parentExisted parentState = iota
	// parentFresh: the parent was created or replaced in this run
	parentFresh
	// parentBlocked: the parent was left in conflict
	parentBlocked
)

type materializer struct {
	opts   Options
	fs     afero.Fs
	report *Report
}

// Materialize creates t under rootPath. The root node maps to rootPath
// joined with the root's name, or rootPath itself for an unnamed root.
//
// The report is returned even when err is non-nil and lists everything
// done up to the failure.
func Materialize(t *tree.Tree, rootPath string, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	report := &Report{
		RunID:   uuid.NewString(),
		DryRun:  opts.DryRun,
		Started: time.Now(),
	}
	if t == nil || t.Root == nil {
		return report, fmt.Errorf("materialize: empty tree")
	}

	base := filepath.Clean(rootPath)
	if t.Root.Name != "" {
		if err := tree.ValidateName(t.Root.Name); err != nil {
			return report, fmt.Errorf("materialize: root: %w", err)
		}
		base = filepath.Join(base, t.Root.Name)
	}
	report.Root = base

	m := &materializer{opts: opts, fs: opts.Fs, report: report}
	opts.Logger.MaterializeStarted(report.RunID, base, opts.DryRun, string(opts.OnConflict))

	state, err := m.dir(base, true, parentExisted)
	if err == nil {
		err = m.children(t.Root, base, state)
	}

	report.Finished = time.Now()
	opts.Logger.MaterializeCompleted(report.RunID, len(report.Entries), report.Changed(), report.Finished.Sub(report.Started))
	return report, err
}

func (m *materializer) children(n *tree.Node, path string, state parentState) error {
	for _, c := range n.Children {
		if err := m.visit(c, n.Name, filepath.Join(path, c.Name), state); err != nil {
			return err
		}
	}
	return nil
}

func (m *materializer) visit(n *tree.Node, parentName, path string, state parentState) error {
	if state == parentBlocked {
		m.record(path, n.Kind, Skipped, "parent not materialized", "")
		return m.children(n, path, parentBlocked)
	}

	if !n.IsDir() {
		return m.file(n, parentName, path, state)
	}

	childState, err := m.dir(path, false, state)
	if err != nil {
		return err
	}
	return m.children(n, path, childState)
}

// dir ensures a directory exists at path and reports what its children
// can assume about it
func (m *materializer) dir(path string, root bool, state parentState) (parentState, error) {
	info, exists, err := m.stat(path, state)
	if err != nil {
		return parentBlocked, m.fail("stat", path, tree.Directory, err)
	}

	switch {
	case !exists:
		if err := m.mkdir(path, root); err != nil {
			return parentBlocked, err
		}
		m.record(path, tree.Directory, Created, "", "")
		return parentFresh, nil

	case info.IsDir():
		m.record(path, tree.Directory, Skipped, "directory exists", "")
		return parentExisted, nil

	default:
		overwrite, err := m.conflict(path, tree.Directory, "a file exists at this path", "")
		if err != nil || !overwrite {
			return parentBlocked, err
		}
		if !m.opts.DryRun {
			if err := m.fs.Remove(path); err != nil {
				return parentBlocked, m.fail("remove", path, tree.Directory, err)
			}
		}
		if err := m.mkdir(path, false); err != nil {
			return parentBlocked, err
		}
		m.record(path, tree.Directory, Overwritten, "replaced file", "")
		return parentFresh, nil
	}
}

func (m *materializer) file(n *tree.Node, parentName, path string, state parentState) error {
	content := m.contentFor(n, parentName)

	info, exists, err := m.stat(path, state)
	if err != nil {
		return m.fail("stat", path, tree.File, err)
	}

	switch {
	case !exists:
		if err := m.write(path, content); err != nil {
			return err
		}
		m.record(path, tree.File, Created, "", "")
		return nil

	case info.IsDir():
		overwrite, err := m.conflict(path, tree.File, "a directory exists at this path", "")
		if err != nil || !overwrite {
			return err
		}
		if !m.opts.DryRun {
			if err := m.fs.RemoveAll(path); err != nil {
				return m.fail("remove", path, tree.File, err)
			}
		}
		if err := m.write(path, content); err != nil {
			return err
		}
		m.record(path, tree.File, Overwritten, "replaced directory", "")
		return nil

	default:
		current, err := afero.ReadFile(m.fs, path)
		if err != nil {
			return m.fail("read", path, tree.File, err)
		}
		if bytes.Equal(current, []byte(content)) {
			m.record(path, tree.File, Skipped, "content matches", "")
			return nil
		}

		patch := ""
		if m.opts.Diff && !diff.Binary(current) {
			patch = diff.Unified(path, string(current), content)
		}
		overwrite, err := m.conflict(path, tree.File, "content differs", patch)
		if err != nil || !overwrite {
			return err
		}
		if err := m.write(path, content); err != nil {
			return err
		}
		m.record(path, tree.File, Overwritten, "content differs", patch)
		return nil
	}
}

// contentFor resolves what a file should contain
func (m *materializer) contentFor(n *tree.Node, parentName string) string {
	if n.HasContent {
		return n.Content
	}
	if m.opts.Scaffold {
		return scaffold.ContentFor(n.Name, parentName, n.Comment)
	}
	return ""
}

// stat looks a path up unless its parent was created in this run, in
// which case nothing can exist below it yet
func (m *materializer) stat(path string, state parentState) (os.FileInfo, bool, error) {
	if state == parentFresh {
		return nil, false, nil
	}
	info, err := m.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return info, true, nil
}

// conflict applies the conflict policy. It returns true when the caller
// should replace what is on disk.
func (m *materializer) conflict(path string, kind tree.Kind, reason, patch string) (bool, error) {
	policy := m.opts.OnConflict
	if policy == Overwrite {
		return true, nil
	}

	m.record(path, kind, Conflict, reason, patch)
	m.opts.Logger.Conflict(path, reason, string(policy))
	if policy == Fail {
		return false, &FilesystemError{Op: "conflict", Path: path, Err: fmt.Errorf("%w: %s", ErrConflict, reason)}
	}
	return false, nil
}

func (m *materializer) mkdir(path string, root bool) error {
	if root && m.opts.NoParents {
		parent := filepath.Dir(path)
		info, err := m.fs.Stat(parent)
		if err != nil {
			return m.fail("mkdir", path, tree.Directory, err)
		}
		if !info.IsDir() {
			return m.fail("mkdir", path, tree.Directory, fmt.Errorf("parent %s is not a directory", parent))
		}
	}
	if m.opts.DryRun {
		return nil
	}

	mkdir := m.fs.Mkdir
	if root {
		mkdir = m.fs.MkdirAll
	}
	if err := mkdir(path, m.opts.DirPerm); err != nil {
		return m.fail("mkdir", path, tree.Directory, err)
	}
	if err := m.fs.Chmod(path, m.opts.DirPerm); err != nil {
		return m.fail("chmod", path, tree.Directory, err)
	}
	return nil
}

func (m *materializer) write(path, content string) error {
	if m.opts.DryRun {
		return nil
	}
	if err := afero.WriteFile(m.fs, path, []byte(content), m.opts.FilePerm); err != nil {
		return m.fail("write", path, tree.File, err)
	}
	if err := m.fs.Chmod(path, m.opts.FilePerm); err != nil {
		return m.fail("chmod", path, tree.File, err)
	}
	return nil
}

func (m *materializer) fail(op, path string, kind tree.Kind, err error) error {
	m.record(path, kind, Failed, err.Error(), "")
	m.opts.Logger.PathError(path, err)
	return &FilesystemError{Op: op, Path: path, Err: err}
}

func (m *materializer) record(path string, kind tree.Kind, outcome Outcome, reason, patch string) {
	m.report.Entries = append(m.report.Entries, Entry{
		Path:    path,
		Kind:    kind,
		Outcome: outcome,
		Reason:  reason,
		Diff:    patch,
	})
	m.opts.Logger.Entry(path, kind.String(), string(outcome))
}
