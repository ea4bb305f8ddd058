// Package scan enumerates the source corpus: files under a root selected by
// extension, minus excluded directories and file patterns.
package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// File is one corpus member. RelPath uses forward slashes and is the key for
// caching and issue reporting; AbsPath is for reading.
type File struct {
	RelPath string
	AbsPath string
}

type Scanner struct {
	root         string
	extensions   map[string]struct{}
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func NewScanner(root string, extensions, excludeDirs, excludeFiles []string) (*Scanner, error) {
	s := &Scanner{
		root:       root,
		extensions: make(map[string]struct{}, len(extensions)),
	}
	for _, ext := range extensions {
		s.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.excludeDirs = append(s.excludeDirs, g)
	}
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.excludeFiles = append(s.excludeFiles, g)
	}
	return s, nil
}

// Files walks the root and returns matching files sorted by RelPath.
func (s *Scanner) Files() ([]File, error) {
	var out []File
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && s.matchAny(s.excludeDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.matchAny(s.excludeFiles, d.Name()) {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := s.extensions[ext]; !ok {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		out = append(out, File{
			RelPath: filepath.ToSlash(rel),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

func (s *Scanner) matchAny(globs []glob.Glob, base string) bool {
	for _, g := range globs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Matches reports whether a single path would be part of the corpus. The
// watcher uses it to ignore events for irrelevant files.
func (s *Scanner) Matches(path string) bool {
	base := filepath.Base(path)
	if s.matchAny(s.excludeFiles, base) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := s.extensions[ext]
	return ok
}
