// Copyright © 2018 One Concern

// Package core implements the versioning orchestrator: it maps
// working tree paths to content store keys and drives the managed
// file lifecycle (manage, sync, resync, unmanage).
package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/gitshed/pkg/errors"
	"github.com/oneconcern/gitshed/pkg/status"
)

// Repo is a version controlled working tree. All orchestrator paths
// resolve against its root, and resolution never escapes it.
type Repo struct {
	root string
}

// NewRepo anchors a repo at root. Symlinks in the root path itself are
// resolved once up front so containment checks compare real paths.
func NewRepo(root string) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.New("cannot resolve repo root").Wrap(err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, status.ErrNotExists.WrapMessage(err, "repo root %s", root)
	}
	fi, err := os.Stat(real)
	if err != nil {
		return nil, status.ErrNotExists.WrapMessage(err, "repo root %s", root)
	}
	if !fi.IsDir() {
		return nil, status.ErrPrecondition.WrapMessage(nil, "repo root %s is not a directory", root)
	}
	return &Repo{root: real}, nil
}

// Root returns the absolute, symlink-resolved repo root.
func (r *Repo) Root() string {
	return r.root
}

// AbsPath resolves path (absolute, or relative to the repo root) to an
// absolute path and verifies it stays under the root.
func (r *Repo) AbsPath(path string) (string, error) {
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.root, p)
	}
	p = filepath.Clean(p)
	if p != r.root && !strings.HasPrefix(p, r.root+string(filepath.Separator)) {
		return "", status.ErrPathOutsideRepo.WrapMessage(nil, "%s is not under %s", p, r.root)
	}
	return p, nil
}

// RelPath resolves path to a repo relative path.
func (r *Repo) RelPath(path string) (string, error) {
	abs, err := r.AbsPath(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", status.ErrPathOutsideRepo.Wrap(err)
	}
	return rel, nil
}
