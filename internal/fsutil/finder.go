// Package fsutil provides file system utility functions.
package fsutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/specialistvlad/sagagrid/internal/ctxlog"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths in lexical order.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ResolvePath takes a path and returns every file with the given extension
// it designates. A file path must carry the extension itself; a directory is
// scanned recursively.
func ResolvePath(ctx context.Context, path, extension string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving path.", "path", path, "extension", extension)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if info.IsDir() {
		logger.Debug("Path is a directory, scanning for files.", "directory", path)
		return FindFilesByExtension(path, extension)
	}

	logger.Debug("Path is a single file.", "file", path)
	if filepath.Ext(path) != extension {
		return nil, fmt.Errorf("specified file is not an %s file: %s", extension, path)
	}
	return []string{path}, nil
}
