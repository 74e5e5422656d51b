package materialize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerunddev/mdirtree/internal/parser"
	"github.com/gerunddev/mdirtree/internal/tree"
)

const sample = `project/
├── cmd/
│   └── main.go
├── docs/
└── README.md
`

func mustParse(t *testing.T, text string, format tree.Format) *tree.Tree {
	t.Helper()
	tr, err := parser.Parse(text, format)
	require.NoError(t, err)
	return tr
}

func memOptions(fsys afero.Fs) Options {
	opts := DefaultOptions()
	opts.Fs = fsys
	return opts
}

// snapshot records every path below root with its content, "<dir>" for directories
func snapshot(t *testing.T, fsys afero.Fs, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := afero.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			out[p] = "<dir>"
			return nil
		}
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		out[p] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func outcomes(r *Report) []string {
	var out []string
	for _, e := range r.Entries {
		out = append(out, string(e.Outcome)+" "+e.Kind.String()+" "+filepath.ToSlash(e.Path))
	}
	return out
}

func TestDryRunPlansEveryNodeInPreOrder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	tr := mustParse(t, sample, tree.ASCII)

	opts := memOptions(fsys)
	opts.DryRun = true
	report, err := Materialize(tr, "/out", opts)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "/out/project", filepath.ToSlash(report.Root))
	assert.Len(t, report.Entries, tr.Len())
	assert.Equal(t, []string{
		"created dir /out/project",
		"created dir /out/project/cmd",
		"created file /out/project/cmd/main.go",
		"created dir /out/project/docs",
		"created file /out/project/README.md",
	}, outcomes(report))

	exists, err := afero.Exists(fsys, "/out")
	require.NoError(t, err)
	assert.False(t, exists, "dry run must not touch the filesystem")
}

func TestMaterializeCreatesTree(t *testing.T) {
	fsys := afero.NewMemMapFs()
	tr := mustParse(t, "- app/\n  - src/\n    - main.py\n  - empty.txt\n\n```\n# src/main.py\nprint('hi')\n```\n", tree.Markdown)

	report, err := Materialize(tr, "/work", memOptions(fsys))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Count(Created))
	assert.Equal(t, 4, report.Changed())

	assert.Equal(t, map[string]string{
		"/work":                 "<dir>",
		"/work/app":             "<dir>",
		"/work/app/src":         "<dir>",
		"/work/app/src/main.py": "print('hi')\n",
		"/work/app/empty.txt":   "",
	}, snapshot(t, fsys, "/work"))
}

func TestMaterializeIsIdempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	tr := mustParse(t, sample, tree.ASCII)

	first, err := Materialize(tr, "/out", memOptions(fsys))
	require.NoError(t, err)
	assert.Equal(t, 5, first.Count(Created))
	before := snapshot(t, fsys, "/out")

	second, err := Materialize(tr, "/out", memOptions(fsys))
	require.NoError(t, err)
	for _, e := range second.Entries {
		assert.Equal(t, Skipped, e.Outcome, "path %s", e.Path)
	}
	assert.Len(t, second.Entries, tr.Len())
	assert.Equal(t, 0, second.Changed())
	assert.Equal(t, before, snapshot(t, fsys, "/out"))
}

func TestEmptyTreeCreatesOnlyRoot(t *testing.T) {
	fsys := afero.NewMemMapFs()
	tr := mustParse(t, "", tree.ASCII)

	report, err := Materialize(tr, "/target/dir", memOptions(fsys))
	require.NoError(t, err)
	assert.Equal(t, []string{"created dir /target/dir"}, outcomes(report))

	isDir, err := afero.IsDir(fsys, "/target/dir")
	require.NoError(t, err)
	assert.True(t, isDir)
}

// seedFileAtCmd puts a regular file where the sample declares cmd/
func seedFileAtCmd(t *testing.T, fsys afero.Fs) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll("/out/project", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/out/project/cmd", []byte("keep me"), 0o644))
}

func TestDirectoryOverFileConflict(t *testing.T) {
	t.Run("fail", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		seedFileAtCmd(t, fsys)

		opts := memOptions(fsys)
		opts.OnConflict = Fail
		report, err := Materialize(mustParse(t, sample, tree.ASCII), "/out", opts)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConflict)
		var fsErr *FilesystemError
		require.True(t, errors.As(err, &fsErr))
		assert.Equal(t, "/out/project/cmd", filepath.ToSlash(fsErr.Path))

		assert.Equal(t, []string{
			"skipped dir /out/project",
			"conflict dir /out/project/cmd",
		}, outcomes(report))

		data, err := afero.ReadFile(fsys, "/out/project/cmd")
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(data))
		exists, _ := afero.Exists(fsys, "/out/project/docs")
		assert.False(t, exists, "nothing after the conflict is created")
	})

	t.Run("overwrite", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		seedFileAtCmd(t, fsys)

		opts := memOptions(fsys)
		opts.OnConflict = Overwrite
		report, err := Materialize(mustParse(t, sample, tree.ASCII), "/out", opts)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"skipped dir /out/project",
			"overwritten dir /out/project/cmd",
			"created file /out/project/cmd/main.go",
			"created dir /out/project/docs",
			"created file /out/project/README.md",
		}, outcomes(report))

		isDir, err := afero.IsDir(fsys, "/out/project/cmd")
		require.NoError(t, err)
		assert.True(t, isDir)
	})

	t.Run("skip", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		seedFileAtCmd(t, fsys)

		report, err := Materialize(mustParse(t, sample, tree.ASCII), "/out", memOptions(fsys))
		require.NoError(t, err)

		assert.Equal(t, []string{
			"skipped dir /out/project",
			"conflict dir /out/project/cmd",
			"skipped file /out/project/cmd/main.go",
			"created dir /out/project/docs",
			"created file /out/project/README.md",
		}, outcomes(report))
		assert.Equal(t, "parent not materialized", report.Entries[2].Reason)
		require.Len(t, report.Conflicts(), 1)

		data, err := afero.ReadFile(fsys, "/out/project/cmd")
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(data))
	})
}

func TestDryRunOverwritePlansChildren(t *testing.T) {
	fsys := afero.NewMemMapFs()
	seedFileAtCmd(t, fsys)

	opts := memOptions(fsys)
	opts.OnConflict = Overwrite
	opts.DryRun = true
	report, err := Materialize(mustParse(t, sample, tree.ASCII), "/out", opts)
	require.NoError(t, err)

	assert.Equal(t, "overwritten dir /out/project/cmd", outcomes(report)[1])
	assert.Equal(t, "created file /out/project/cmd/main.go", outcomes(report)[2])

	isDir, err := afero.IsDir(fsys, "/out/project/cmd")
	require.NoError(t, err)
	assert.False(t, isDir, "dry run must leave the file in place")
}

func TestFileContentConflicts(t *testing.T) {
	const input = "- notes/\n  - todo.txt\n\n```\n# notes/todo.txt\nplanned\n```\n"

	seed := func(t *testing.T, content string) afero.Fs {
		fsys := afero.NewMemMapFs()
		require.NoError(t, fsys.MkdirAll("/out/notes", 0o755))
		require.NoError(t, afero.WriteFile(fsys, "/out/notes/todo.txt", []byte(content), 0o644))
		return fsys
	}

	t.Run("matching content is skipped", func(t *testing.T) {
		fsys := seed(t, "planned\n")
		report, err := Materialize(mustParse(t, input, tree.Markdown), "/out", memOptions(fsys))
		require.NoError(t, err)
		assert.Equal(t, Skipped, report.Entries[1].Outcome)
		assert.Equal(t, "content matches", report.Entries[1].Reason)
	})

	t.Run("skip records conflict with diff", func(t *testing.T) {
		fsys := seed(t, "edited by hand\n")
		opts := memOptions(fsys)
		opts.Diff = true
		report, err := Materialize(mustParse(t, input, tree.Markdown), "/out", opts)
		require.NoError(t, err)

		e := report.Entries[1]
		assert.Equal(t, Conflict, e.Outcome)
		assert.Equal(t, "content differs", e.Reason)
		assert.Contains(t, e.Diff, "-edited by hand")
		assert.Contains(t, e.Diff, "+planned")

		data, _ := afero.ReadFile(fsys, "/out/notes/todo.txt")
		assert.Equal(t, "edited by hand\n", string(data))
	})

	t.Run("overwrite replaces content", func(t *testing.T) {
		fsys := seed(t, "edited by hand\n")
		opts := memOptions(fsys)
		opts.OnConflict = Overwrite
		report, err := Materialize(mustParse(t, input, tree.Markdown), "/out", opts)
		require.NoError(t, err)

		assert.Equal(t, Overwritten, report.Entries[1].Outcome)
		assert.Empty(t, report.Entries[1].Diff, "diff only when requested")
		data, _ := afero.ReadFile(fsys, "/out/notes/todo.txt")
		assert.Equal(t, "planned\n", string(data))
	})

	t.Run("fail aborts", func(t *testing.T) {
		fsys := seed(t, "edited by hand\n")
		opts := memOptions(fsys)
		opts.OnConflict = Fail
		_, err := Materialize(mustParse(t, input, tree.Markdown), "/out", opts)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestFileOverDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/out/data/nested", 0o755))

	tr := mustParse(t, "- data\n- other\n", tree.Markdown)

	report, err := Materialize(tr, "/out", memOptions(fsys))
	require.NoError(t, err)
	assert.Equal(t, "conflict file /out/data", outcomes(report)[1])
	assert.Equal(t, "created file /out/other", outcomes(report)[2])

	opts := memOptions(fsys)
	opts.OnConflict = Overwrite
	report, err = Materialize(tr, "/out", opts)
	require.NoError(t, err)
	assert.Equal(t, "overwritten file /out/data", outcomes(report)[1])

	isDir, err := afero.IsDir(fsys, "/out/data")
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestCreateMissingParents(t *testing.T) {
	tr := mustParse(t, "- a.txt\n", tree.Markdown)

	t.Run("enabled", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		_, err := Materialize(tr, "/deep/er/root", memOptions(fsys))
		require.NoError(t, err)
		exists, _ := afero.Exists(fsys, "/deep/er/root/a.txt")
		assert.True(t, exists)
	})

	for _, dryRun := range []bool{false, true} {
		t.Run("disabled", func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			opts := memOptions(fsys)
			opts.NoParents = true
			opts.DryRun = dryRun

			report, err := Materialize(tr, "/deep/er/root", opts)
			var fsErr *FilesystemError
			require.True(t, errors.As(err, &fsErr), "dry run %v: %v", dryRun, err)
			assert.Equal(t, "mkdir", fsErr.Op)
			assert.Equal(t, []string{"failed dir /deep/er/root"}, outcomes(report))
		})
	}

	t.Run("zero options create parents", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		report, err := Materialize(tr, "/missing/parent", Options{Fs: fsys})
		require.NoError(t, err)
		assert.Equal(t, []string{"created dir /missing/parent", "created file /missing/parent/a.txt"}, outcomes(report))
		exists, _ := afero.Exists(fsys, "/missing/parent/a.txt")
		assert.True(t, exists)
	})

	t.Run("disabled with existing parent", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, fsys.MkdirAll("/deep/er", 0o755))
		opts := memOptions(fsys)
		opts.NoParents = true

		_, err := Materialize(tr, "/deep/er/root", opts)
		require.NoError(t, err)
	})
}

func TestFilesystemErrorKeepsPartialReport(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/out/project", 0o755))
	fsys := afero.NewReadOnlyFs(base)

	report, err := Materialize(mustParse(t, sample, tree.ASCII), "/out", memOptions(fsys))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)

	var fsErr *FilesystemError
	require.True(t, errors.As(err, &fsErr))
	assert.Equal(t, "mkdir", fsErr.Op)
	assert.Equal(t, "/out/project/cmd", filepath.ToSlash(fsErr.Path))

	assert.Equal(t, []string{
		"skipped dir /out/project",
		"failed dir /out/project/cmd",
	}, outcomes(report))
	assert.False(t, report.Finished.IsZero())
}

func TestScaffoldContent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	tr := mustParse(t, "svc/\n  api/\n    handler.go  # HTTP handlers\n  requirements.txt\n  given.txt\n", tree.ASCII)
	tr.Lookup("given.txt").Content = "explicit\n"
	tr.Lookup("given.txt").HasContent = true

	opts := memOptions(fsys)
	opts.Scaffold = true
	_, err := Materialize(tr, "/out", opts)
	require.NoError(t, err)

	snap := snapshot(t, fsys, "/out/svc")
	assert.Equal(t, "// HTTP handlers\npackage api\n", snap["/out/svc/api/handler.go"])
	assert.Equal(t, "# Project dependencies\n", snap["/out/svc/requirements.txt"])
	assert.Equal(t, "explicit\n", snap["/out/svc/given.txt"])
}

func TestPermissionsOnDisk(t *testing.T) {
	dir := t.TempDir()
	tr := mustParse(t, "secret/\n  key.pem\n", tree.ASCII)

	opts := DefaultOptions()
	opts.DirPerm = 0o700
	opts.FilePerm = 0o600
	_, err := Materialize(tr, dir, opts)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "secret"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	info, err = os.Stat(filepath.Join(dir, "secret", "key.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMaterializeNilTree(t *testing.T) {
	report, err := Materialize(nil, "/out", DefaultOptions())
	assert.Error(t, err)
	assert.NotNil(t, report)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", Skip, false},
		{"skip", Skip, false},
		{"Overwrite", Overwrite, false},
		{" fail ", Fail, false},
		{"merge", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportSummary(t *testing.T) {
	r := &Report{DryRun: true, Entries: []Entry{
		{Outcome: Created}, {Outcome: Created}, {Outcome: Skipped}, {Outcome: Conflict},
	}}
	assert.Equal(t, "Dry run: 2 created, 1 skipped, 0 overwritten, 1 conflicts", r.String())

	r.DryRun = false
	r.Entries = append(r.Entries, Entry{Outcome: Failed})
	assert.Equal(t, "Materialized: 2 created, 1 skipped, 0 overwritten, 1 conflicts, 1 failed", r.String())
	assert.Equal(t, 2, r.Changed())
}

func TestFilesystemErrorMessage(t *testing.T) {
	err := &FilesystemError{Op: "mkdir", Path: "/x", Err: os.ErrPermission}
	assert.Equal(t, "mkdir /x: permission denied", err.Error())
	assert.ErrorIs(t, err, os.ErrPermission)
}
