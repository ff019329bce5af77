// Copyright © 2018 One Concern

package core

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/oneconcern/gitshed/pkg/status"
)

// managedSymlinks walks the working tree and returns the repo relative
// paths of every symlink resolving under the shed root, in lexical
// order. Excluded directories are pruned from the walk. Exclusion is a
// performance concern only: managed symlinks are not expected there.
func (s *Shed) managedSymlinks() ([]string, error) {
	skip := make(map[string]bool, len(s.exclude))
	for _, ex := range s.exclude {
		skip[filepath.Clean(filepath.FromSlash(ex))] = true
	}

	var links []string
	root := s.repo.Root()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		if d.IsDir() {
			if rel != "." && skip[rel] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if _, ok := s.shedTarget(rel); ok {
			links = append(links, rel)
		}
		return nil
	})
	if err != nil {
		return nil, status.ErrPrecondition.WrapMessage(err, "scanning %s", root)
	}
	sort.Strings(links)
	return links, nil
}
