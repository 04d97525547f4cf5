package expander_test

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynacylabs/airganizer-sub001/internal/testutil"
	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
	"github.com/dynacylabs/airganizer-sub001/pkg/expander/backend"
)

func discardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}

func testOptions(root string, extractor expander.Extractor, hooks expander.Hooks) expander.Options {
	return expander.Options{
		RootPath:   root,
		Logger:     discardHandler(),
		Extractor:  extractor,
		EventHooks: hooks,
	}
}

func TestEngine_Run_NoArchives(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTree(t, root, map[string]string{
		"readme.md":    "text",
		"sub/data.csv": "1,2,3",
	})
	hooks := testutil.NewRecorderHooks()

	engine, err := expander.NewEngine(testOptions(root, &testutil.FakeExtractor{}, hooks))
	require.NoError(t, err)
	report, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, expander.RunStateDone, engine.State())
	assert.Equal(t, 2, report.Summary.Processed)
	assert.Equal(t, 0, report.Summary.ArchivesExtracted)
	assert.Equal(t, 2, report.Summary.SkippedCount)
	assert.Equal(t, 0, report.Summary.VanishedCount)
	assert.Equal(t, 0, report.Summary.ErrorCount)
	assert.True(t, hooks.Completed)
	assert.Len(t, hooks.Discovered, 2)
	assert.Equal(t, expander.StatusSkipped, hooks.FinalStatus("readme.md"))
}

func TestEngine_Run_NestedArchives(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTree(t, root, map[string]string{"a.zip": "outer archive bytes"})
	extractor := &testutil.FakeExtractor{Entries: map[string][]string{
		"a.zip": {"b.zip", "notes.txt"},
		"b.zip": {"c.txt"},
	}}
	hooks := testutil.NewRecorderHooks()

	report, err := expander.Expand(context.Background(), testOptions(root, extractor, hooks))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.ArchivesExtracted)
	assert.Equal(t, 3, report.Summary.FilesCreated) // b.zip, notes.txt, c.txt
	assert.Equal(t, 2, report.Summary.SkippedCount) // notes.txt, c.txt
	// 1 seed + 3 produced, all processed.
	assert.Equal(t, 4, report.Summary.Processed)

	// The consumed archives are gone; their contents sit in the
	// stripped-extension directories.
	assert.NoFileExists(t, filepath.Join(root, "a.zip"))
	assert.NoFileExists(t, filepath.Join(root, "a", "b.zip"))
	assert.FileExists(t, filepath.Join(root, "a", "notes.txt"))
	assert.FileExists(t, filepath.Join(root, "a", "b", "c.txt"))

	assert.Equal(t, expander.StatusExtracted, hooks.FinalStatus("a.zip"))
	assert.Equal(t, expander.StatusExtracted, hooks.FinalStatus("a/b.zip"))
	assert.Equal(t, expander.StatusSkipped, hooks.FinalStatus("a/b/c.txt"))

	require.Len(t, report.Extracted, 2)
	assert.Equal(t, "a.zip", report.Extracted[0].Path)
	assert.Equal(t, "a", report.Extracted[0].TargetDir)
	assert.Equal(t, 0, report.Extracted[0].Depth)
	assert.Equal(t, 1, report.Extracted[1].Depth)
}

func TestEngine_Run_StatConservation(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTree(t, root, map[string]string{
		"x.zip":     "a",
		"plain.txt": "b",
		"sub/y.tar": "c",
	})
	extractor := &testutil.FakeExtractor{Entries: map[string][]string{
		"x.zip": {"inner.txt"},
		"y.tar": {"z.zip"},
		"z.zip": {"leaf.md"},
	}}

	report, err := expander.Expand(context.Background(), testOptions(root, extractor, &expander.NoOpHooks{}))
	require.NoError(t, err)

	s := report.Summary
	assert.Equal(t, s.Processed,
		s.ArchivesExtracted+s.SkippedCount+s.VanishedCount+s.ErrorCount,
		"every processed item must land in exactly one bucket")
	assert.Equal(t, s.Processed-s.ArchivesExtracted+s.FilesCreated, s.FilesRemaining)
}

// vanishingExtractor removes a sibling queued file as a side effect, the way
// a real extraction into a colliding target directory can.
type vanishingExtractor struct {
	fake   testutil.FakeExtractor
	victim string
}

func (v *vanishingExtractor) AttemptExtract(ctx context.Context, archivePath string) expander.Outcome {
	outcome := v.fake.AttemptExtract(ctx, archivePath)
	if outcome.Extracted {
		_ = os.Remove(v.victim)
	}
	return outcome
}

func TestEngine_Run_VanishedItem(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTree(t, root, map[string]string{
		"a.zip":     "archive",
		"ghost.txt": "will be deleted mid-run",
	})
	extractor := &vanishingExtractor{
		fake:   testutil.FakeExtractor{Entries: map[string][]string{"a.zip": {"out.txt"}}},
		victim: filepath.Join(root, "ghost.txt"),
	}
	hooks := testutil.NewRecorderHooks()

	report, err := expander.Expand(context.Background(), testOptions(root, extractor, hooks))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.VanishedCount)
	assert.Equal(t, 0, report.Summary.ErrorCount, "a vanished item is not an error")
	assert.Equal(t, expander.StatusVanished, hooks.FinalStatus("ghost.txt"))

	found := false
	for _, sk := range report.Skipped {
		if sk.Path == "ghost.txt" {
			assert.Equal(t, expander.SkipReasonVanished, sk.Reason)
			found = true
		}
	}
	assert.True(t, found, "vanished item must appear in the skipped list")
}

func TestEngine_Run_DepthGuard(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTree(t, root, map[string]string{"bomb.zip": "self-replicating"})
	// bomb.zip contains another bomb.zip, forever.
	extractor := &testutil.FakeExtractor{Entries: map[string][]string{
		"bomb.zip": {"bomb.zip"},
	}}
	hooks := testutil.NewRecorderHooks()

	opts := testOptions(root, extractor, hooks)
	opts.MaxDepth = 3
	report, err := expander.Expand(context.Background(), opts)
	require.NoError(t, err, "the run must terminate and report, not fail")

	assert.Equal(t, 3, report.Summary.ArchivesExtracted, "depths 0..2 extract")
	assert.Equal(t, 1, report.Summary.ErrorCount, "depth 3 is diagnosed")
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "depth")
}

// snapshotTree captures every path under root, directories included, with
// file contents, so two trees can be compared byte for byte.
func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	snap := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		require.NoError(t, walkErr)
		rel, relErr := filepath.Rel(root, path)
		require.NoError(t, relErr)
		if d.IsDir() {
			snap[filepath.ToSlash(rel)+"/"] = ""
			return nil
		}
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		snap[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return snap
}

func TestEngine_Run_SecondRunIsNoOp(t *testing.T) {
	root := t.TempDir()
	inner := testutil.BuildZip(t, map[string]string{"leaf.txt": "bottom"})
	testutil.WriteFixture(t, root, "outer.zip", testutil.BuildZip(t, map[string]string{
		"inner.zip": string(inner),
		"notes.txt": "plain",
	}))
	testutil.WriteFixture(t, root, "report.txt.gz", testutil.BuildGzip(t, "compressed report"))

	opts := testOptions(root, backend.NewArchivesExtractor(nil, false), nil)

	first, err := expander.Expand(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 3, first.Summary.ArchivesExtracted)
	settled := snapshotTree(t, root)

	second, err := expander.Expand(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Summary.ArchivesExtracted, "a drained tree has nothing left to expand")
	assert.Equal(t, 0, second.Summary.ErrorCount)
	assert.Equal(t, second.Summary.Processed, second.Summary.SkippedCount)
	assert.Equal(t, settled, snapshotTree(t, root), "second run must leave the tree untouched")
}

func TestEngine_Run_SharedTargetDirectory(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFixture(t, root, "foo.zip", testutil.BuildZip(t, map[string]string{"from-zip.txt": "zip side"}))
	testutil.WriteFixture(t, root, "foo.tar", testutil.BuildTar(t, map[string]string{"from-tar.txt": "tar side"}))

	report, err := expander.Expand(context.Background(),
		testOptions(root, backend.NewArchivesExtractor(nil, false), nil))
	require.NoError(t, err)

	// Stripping the extension sends both siblings into foo/; their contents
	// interleave there and neither extraction fails.
	assert.Equal(t, 2, report.Summary.ArchivesExtracted, "both siblings expand despite the shared target")
	assert.Equal(t, 0, report.Summary.ErrorCount)
	assert.FileExists(t, filepath.Join(root, "foo", "from-zip.txt"))
	assert.FileExists(t, filepath.Join(root, "foo", "from-tar.txt"))
	assert.NoFileExists(t, filepath.Join(root, "foo.zip"))
	assert.NoFileExists(t, filepath.Join(root, "foo.tar"))
}

func TestEngine_Run_Cancelled(t *testing.T) {
	root := t.TempDir()
	testutil.CreateTree(t, root, map[string]string{"a.txt": "a", "b.txt": "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, err := expander.NewEngine(testOptions(root, &testutil.FakeExtractor{}, &expander.NoOpHooks{}))
	require.NoError(t, err)
	// Scan fails fast under a cancelled context; either way the run ends
	// with the context error and a well-formed (possibly empty) report.
	report, err := engine.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Summary.ArchivesExtracted)
}

func TestNewEngine_Validation(t *testing.T) {
	root := t.TempDir()
	valid := testOptions(root, &testutil.FakeExtractor{}, nil)

	t.Run("NilLogger", func(t *testing.T) {
		opts := valid
		opts.Logger = nil
		_, err := expander.NewEngine(opts)
		assert.ErrorIs(t, err, expander.ErrConfigValidation)
	})

	t.Run("NilExtractor", func(t *testing.T) {
		opts := valid
		opts.Extractor = nil
		_, err := expander.NewEngine(opts)
		assert.ErrorIs(t, err, expander.ErrConfigValidation)
	})

	t.Run("EmptyRoot", func(t *testing.T) {
		opts := valid
		opts.RootPath = ""
		_, err := expander.NewEngine(opts)
		assert.ErrorIs(t, err, expander.ErrConfigValidation)
	})

	t.Run("RootMissing", func(t *testing.T) {
		opts := valid
		opts.RootPath = filepath.Join(root, "does-not-exist")
		_, err := expander.NewEngine(opts)
		assert.ErrorIs(t, err, expander.ErrConfigValidation)
	})

	t.Run("RootIsFile", func(t *testing.T) {
		file := filepath.Join(root, "afile.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		opts := valid
		opts.RootPath = file
		_, err := expander.NewEngine(opts)
		assert.ErrorIs(t, err, expander.ErrConfigValidation)
		assert.ErrorIs(t, err, expander.ErrNotADirectory)
	})

	t.Run("NegativeDepth", func(t *testing.T) {
		opts := valid
		opts.MaxDepth = -1
		_, err := expander.NewEngine(opts)
		assert.ErrorIs(t, err, expander.ErrConfigValidation)
	})
}
