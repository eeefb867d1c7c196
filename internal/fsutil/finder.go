// Package fsutil provides file system helpers for locating configuration and
// script files.
package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoExtension is returned when FindFilesByExtension is called with an
// empty extension.
var ErrNoExtension = errors.New("extension must not be empty")

// FindFilesByExtension walks rootPath and returns the files whose name ends
// with extension, sorted lexically. The leading dot is optional. Hidden
// directories such as .git are not descended into.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	extension = strings.TrimPrefix(extension, ".")
	if extension == "" {
		return nil, ErrNoExtension
	}
	suffix := "." + extension

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), suffix) {
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
