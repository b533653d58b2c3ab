// Package files builds the list of source files a scan covers.
package files

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-hclog"
)

// Listing maps a directory path, ending with a separator, to the names of the
// source files it contains.
type Listing map[string][]string

// Flatten returns the full path of every listed file, sorted.
func (l Listing) Flatten() []string {
	paths := make([]string, 0, l.Len())
	for dir, names := range l {
		for _, name := range names {
			paths = append(paths, dir+name)
		}
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of listed files.
func (l Listing) Len() int {
	n := 0
	for _, names := range l {
		n += len(names)
	}
	return n
}

// Options controls which files are listed.
type Options struct {
	Extensions []string
	Ignore     []string
}

// Build walks root and lists every file with one of the configured
// extensions. Paths matching an ignore glob, relative to root, are skipped.
func Build(root string, opts Options, logger hclog.Logger) (Listing, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("malformed ignore pattern %q", pattern)
		}
	}

	listing := Listing{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("unable to read path, skipped", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignored(opts.Ignore, rel) || ignored(opts.Ignore, rel+"/") {
				logger.Debug("directory ignored", "path", rel)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !hasExtension(path, opts.Extensions) || ignored(opts.Ignore, rel) {
			return nil
		}

		dir := filepath.Dir(path) + string(filepath.Separator)
		listing[dir] = append(listing[dir], filepath.Base(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %s: %w", root, err)
	}

	for _, names := range listing {
		sort.Strings(names)
	}
	logger.Debug("file listing built", "root", root, "directories", len(listing), "files", listing.Len())
	return listing, nil
}

func ignored(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func hasExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
