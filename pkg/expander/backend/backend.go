// Package backend provides the production extraction backend for
// pkg/expander, built on github.com/mholt/archives. Format detection is
// content-based via archives.Identify, so a misnamed archive still opens and
// a text file named data.zip still refuses. Multi-file archive formats
// (zip, tar and friends, rar, 7z) and single-stream compression formats
// (gz, bz2, xz, zst, ...) are both handled.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mholt/archives"

	"github.com/dynacylabs/airganizer-sub001/pkg/expander"
)

const copyBufferSize = 64 * 1024

// ArchivesExtractor implements expander.Extractor using the mholt/archives
// format registry. It honors the one-bit contract of the interface: every
// failure mode, from unknown format to a write error halfway through the
// entry list, collapses into Outcome{Extracted: false} and is logged, never
// returned.
type ArchivesExtractor struct {
	logger *slog.Logger
	dryRun bool
}

// NewArchivesExtractor creates the default extraction backend.
func NewArchivesExtractor(loggerHandler slog.Handler, dryRun bool) *ArchivesExtractor {
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "backend"))
	return &ArchivesExtractor{logger: logger, dryRun: dryRun}
}

// AttemptExtract tries to expand archivePath into its target directory (the
// path minus its final extension). On success the consumed archive is
// deleted best-effort and the outcome lists every file now present under
// the target directory. On any failure the outcome reports not-extracted
// and nothing is deleted; partially written output may remain and is left
// for a later queue pass or the user.
func (x *ArchivesExtractor) AttemptExtract(ctx context.Context, archivePath string) expander.Outcome {
	file, err := os.Open(archivePath)
	if err != nil {
		x.logger.Debug("Cannot open candidate file", slog.String("path", archivePath), slog.String("error", err.Error()))
		return expander.Outcome{}
	}
	defer file.Close()

	format, input, err := archives.Identify(ctx, archivePath, file)
	if err != nil {
		// Unknown format is the common case: most files are not archives.
		if !errors.Is(err, archives.NoMatch) {
			x.logger.Debug("Format identification failed", slog.String("path", archivePath), slog.String("error", err.Error()))
		}
		return expander.Outcome{}
	}

	targetDir := strings.TrimSuffix(archivePath, filepath.Ext(archivePath))
	if targetDir == archivePath {
		// No extension to strip ("Makefile" identified as tar, say). Expanding
		// would clobber the archive with its own output directory.
		x.logger.Debug("Candidate has no extension, refusing to expand in place", slog.String("path", archivePath))
		return expander.Outcome{}
	}

	if x.dryRun {
		return x.dryRunOutcome(archivePath, format)
	}

	var written int64
	switch f := format.(type) {
	case archives.Extractor:
		written, err = x.extractArchive(ctx, f, input, archivePath, targetDir)
	case archives.Decompressor:
		written, err = x.decompressStream(f, input, archivePath, targetDir)
	default:
		x.logger.Debug("Format recognized but not extractable", slog.String("path", archivePath), slog.String("format", fmt.Sprintf("%T", format)))
		return expander.Outcome{}
	}
	if err != nil {
		x.logger.Warn("Extraction failed", slog.String("path", archivePath), slog.String("error", err.Error()))
		return expander.Outcome{}
	}

	newFiles, err := listFilesUnder(targetDir)
	if err != nil {
		// Without a reliable listing the driver cannot enqueue outputs, and
		// deleting the archive now would strand its contents.
		x.logger.Warn("Cannot enumerate extraction output", slog.String("dir", targetDir), slog.String("error", err.Error()))
		return expander.Outcome{}
	}

	file.Close()
	if rmErr := os.Remove(archivePath); rmErr != nil {
		// Best effort: a stubborn archive gets re-identified next run and
		// re-extracted over the existing target, which is idempotent.
		x.logger.Warn("Cannot delete consumed archive", slog.String("path", archivePath), slog.String("error", rmErr.Error()))
	}

	x.logger.Debug("Archive expanded",
		slog.String("path", archivePath),
		slog.String("target", targetDir),
		slog.Int("files", len(newFiles)),
		slog.Int64("bytes", written),
	)
	return expander.Outcome{Extracted: true, NewFiles: newFiles, Bytes: written}
}

// dryRunOutcome reports what a real run would do without touching the
// filesystem. NewFiles stays empty because the contents cannot be known
// without extracting, so nested archives are not followed in dry-run mode.
func (x *ArchivesExtractor) dryRunOutcome(archivePath string, format archives.Format) expander.Outcome {
	switch format.(type) {
	case archives.Extractor, archives.Decompressor:
		x.logger.Info("Dry run: would extract", slog.String("path", archivePath), slog.String("format", fmt.Sprintf("%T", format)))
		return expander.Outcome{Extracted: true}
	default:
		return expander.Outcome{}
	}
}

// extractArchive unpacks a multi-entry archive format sequentially into
// targetDir and returns the total bytes written.
func (x *ArchivesExtractor) extractArchive(ctx context.Context, ex archives.Extractor, input io.Reader, archivePath, targetDir string) (int64, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return 0, fmt.Errorf("cannot create target directory '%s': %w", targetDir, err)
	}

	var written int64
	buf := make([]byte, copyBufferSize)
	handler := func(ctx context.Context, f archives.FileInfo) error {
		n, err := x.writeEntry(targetDir, f, buf)
		written += n
		return err
	}
	if err := ex.Extract(ctx, input, handler); err != nil {
		return written, fmt.Errorf("extraction of '%s' failed: %w", archivePath, err)
	}
	return written, nil
}

// writeEntry materializes one archive entry under targetDir.
func (x *ArchivesExtractor) writeEntry(targetDir string, f archives.FileInfo, buf []byte) (int64, error) {
	targetPath := filepath.Clean(filepath.Join(targetDir, f.NameInArchive))

	// Entry names are untrusted input; refuse anything escaping the target.
	cleanRoot := filepath.Clean(targetDir) + string(os.PathSeparator)
	if !strings.HasPrefix(targetPath+string(os.PathSeparator), cleanRoot) {
		return 0, fmt.Errorf("entry '%s' escapes target directory", f.NameInArchive)
	}

	if f.IsDir() {
		if err := os.MkdirAll(targetPath, 0o755); err != nil {
			return 0, fmt.Errorf("cannot create directory '%s': %w", targetPath, err)
		}
		return 0, nil
	}

	if f.Mode()&os.ModeSymlink != 0 {
		x.logger.Debug("Skipping symbolic link entry", slog.String("entry", f.NameInArchive))
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return 0, fmt.Errorf("cannot create parent directory for '%s': %w", targetPath, err)
	}

	reader, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("cannot open entry '%s': %w", f.NameInArchive, err)
	}
	defer reader.Close()

	mode := f.Mode() & 0o777
	if mode == 0 {
		mode = 0o644
	}
	writer, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, fmt.Errorf("cannot create file '%s': %w", targetPath, err)
	}
	defer writer.Close()

	n, err := io.CopyBuffer(writer, reader, buf)
	if err != nil {
		os.Remove(targetPath)
		return n, fmt.Errorf("cannot write '%s': %w", targetPath, err)
	}

	if !f.ModTime().IsZero() {
		if err := os.Chtimes(targetPath, time.Now(), f.ModTime()); err != nil {
			x.logger.Debug("Cannot set timestamps", slog.String("path", targetPath), slog.String("error", err.Error()))
		}
	}
	return n, nil
}

// decompressStream handles single-stream compression formats (gzip, bzip2,
// xz, zstd, ...): the decompressed payload becomes a single file inside the
// target directory, named after the archive minus its compression
// extension ("notes.txt.gz" yields "notes.txt/notes.txt").
func (x *ArchivesExtractor) decompressStream(d archives.Decompressor, input io.Reader, archivePath, targetDir string) (int64, error) {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return 0, fmt.Errorf("cannot create target directory '%s': %w", targetDir, err)
	}

	reader, err := d.OpenReader(input)
	if err != nil {
		return 0, fmt.Errorf("cannot open compressed stream '%s': %w", archivePath, err)
	}
	defer reader.Close()

	targetPath := filepath.Join(targetDir, filepath.Base(targetDir))
	writer, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("cannot create file '%s': %w", targetPath, err)
	}
	defer writer.Close()

	n, err := io.CopyBuffer(writer, reader, make([]byte, copyBufferSize))
	if err != nil {
		os.Remove(targetPath)
		return n, fmt.Errorf("cannot decompress '%s': %w", archivePath, err)
	}
	return n, nil
}

// listFilesUnder returns the absolute path of every regular file below dir,
// sorted for deterministic queue order. Directories and symlinks are
// omitted; they are not work items.
func listFilesUnder(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, abs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
