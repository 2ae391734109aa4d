package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/strataspect/borelog/constants"
)

// DiscoverFiles walks root and returns every supported chart file,
// sorted for deterministic batch ordering.
func DiscoverFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if allowed(path, constants.AllowedExtensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// WaitSettled blocks until the file's size stops changing between polls.
// Watcher events fire while a chart is still being copied in; parsing a
// half-written workbook reads as corruption.
func WaitSettled(ctx context.Context, path string) error {
	var lastSize int64 = -1
	return retry.Do(
		func() error {
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.Size() != lastSize {
				lastSize = info.Size()
				return fmt.Errorf("file %s still growing", filepath.Base(path))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(200*time.Millisecond),
	)
}
