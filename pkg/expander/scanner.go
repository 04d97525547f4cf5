package expander

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// fsScanner implements Scanner on the local filesystem using
// filepath.WalkDir.
type fsScanner struct {
	logger *slog.Logger
}

// NewScanner creates the default filesystem Scanner.
func NewScanner(loggerHandler slog.Handler) Scanner {
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	logger := slog.New(loggerHandler).With(slog.String("component", "scanner"))
	return &fsScanner{logger: logger}
}

// ListFiles walks root recursively and returns every regular file present
// at the moment of the call. Directories contribute their contents, not
// themselves. Symbolic links are skipped, matching the extraction backend's
// refusal to write through links.
func (s *fsScanner) ListFiles(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: root path '%s' does not exist", ErrScanFailed, root)
		}
		return nil, fmt.Errorf("%w: cannot access root path '%s': %w", ErrScanFailed, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %w: '%s'", ErrScanFailed, ErrNotADirectory, root)
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Errors below the root abort the snapshot: partial enumeration
			// would silently leave subtrees unexpanded.
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			s.logger.Debug("Skipping symbolic link", slog.String("path", path))
			return nil
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("cannot resolve absolute path for '%s': %w", path, err)
		}
		files = append(files, absPath)
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, walkErr
		}
		return nil, fmt.Errorf("%w: %w", ErrScanFailed, walkErr)
	}
	s.logger.Debug("Directory scan complete", slog.String("root", root), slog.Int("files", len(files)))
	return files, nil
}
