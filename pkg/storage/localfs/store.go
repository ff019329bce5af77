// Copyright © 2018 One Concern

// Package localfs implements a content store backend on the local
// filesystem. Useful for testing and for sheds shared over a mounted
// volume.
package localfs

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/oneconcern/gitshed/pkg/storage"
	"github.com/spf13/afero"
)

// staging area for atomic puts: files are written here first, then
// Rename()d into place
const putStageName = ".put-stage"

// New creates a local filesystem backed store rooted at root.
func New(root string) storage.Store {
	return &localFS{
		fs:   afero.NewBasePathFs(afero.NewOsFs(), root),
		root: root,
	}
}

// NewWithFs creates a local store on an arbitrary afero filesystem.
func NewWithFs(fs afero.Fs) storage.Store {
	return &localFS{fs: fs}
}

type localFS struct {
	fs   afero.Fs
	root string
}

func (l *localFS) String() string {
	if l.root != "" {
		return "localfs@" + l.root
	}
	return "localfs"
}

func (l *localFS) RawGet(ctx context.Context, logicalPaths []string, destDir string) error {
	for _, logicalPath := range logicalPaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := fromLogical(logicalPath)
		dest := filepath.Join(destDir, path.Base(logicalPath))
		if err := l.copyOut(src, dest); err != nil {
			return status.ErrTransport.WrapMessage(err, "localfs get %q", logicalPath)
		}
	}
	return nil
}

func (l *localFS) RawPut(ctx context.Context, srcPaths []string, logicalDir string) error {
	dir := fromLogical(logicalDir)
	if err := l.fs.MkdirAll(filepath.Join(putStageName, dir), 0755); err != nil {
		return status.ErrTransport.Wrap(err)
	}
	if err := l.fs.MkdirAll(dir, 0755); err != nil {
		return status.ErrTransport.Wrap(err)
	}
	for _, src := range srcPaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest := filepath.Join(dir, filepath.Base(src))
		if err := l.copyIn(src, dest); err != nil {
			return status.ErrTransport.WrapMessage(err, "localfs put %q", src)
		}
	}
	return nil
}

func (l *localFS) RawHas(ctx context.Context, logicalPath string) (bool, error) {
	fi, err := l.fs.Stat(fromLogical(logicalPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, status.ErrTransport.Wrap(err)
	}
	return !fi.IsDir(), nil
}

// copyOut copies a store file to a plain local path, preserving its mode.
func (l *localFS) copyOut(src, dest string) error {
	in, err := l.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err = storage.PipeIO(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Chmod(dest, fi.Mode().Perm())
}

// copyIn copies a local file into the store via the staging area, so the
// final write is an atomic Rename.
func (l *localFS) copyIn(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	stage := filepath.Join(putStageName, dest)
	out, err := l.fs.OpenFile(stage, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err = storage.PipeIO(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	if err = l.fs.Chmod(stage, fi.Mode().Perm()); err != nil {
		return err
	}
	return l.fs.Rename(stage, dest)
}

// fromLogical converts a forward-slash logical path to a filesystem path.
func fromLogical(logicalPath string) string {
	return filepath.FromSlash(logicalPath)
}
