// Copyright © 2018 One Concern

package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/gitshed/internal/rand"
	"github.com/oneconcern/gitshed/pkg/content"
	"github.com/oneconcern/gitshed/pkg/status"

	"go.uber.org/zap"
)

// ShedRoot is the repo relative directory holding the content behind
// managed symlinks. It is a local cache concern and must be ignored by
// version control.
const ShedRoot = ".gitshed/files"

// Shed drives the managed file lifecycle.
//
// A managed file is a symlink committed to version control whose target
// lies under the shed root. The target encodes the file's content key,
// so a clone can refetch the bytes from the content store. A managed
// file is synced when its symlink target exists, unsynced when the
// symlink dangles.
type Shed struct {
	repo    *Repo
	engine  *content.Store
	exclude []string
	l       *zap.Logger
}

// NewShed builds a shed over a repo, backed by a content store engine.
// The shed directory is created if needed.
func NewShed(repo *Repo, engine *content.Store, opts ...ShedOption) (*Shed, error) {
	s := &Shed{
		repo:   repo,
		engine: engine,
		l:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	// traversal never descends into version control internals or the shed
	s.exclude = append(s.exclude, ".git", ".gitshed")

	shedAbs, err := repo.AbsPath(ShedRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(shedAbs, 0755); err != nil {
		return nil, status.ErrPrecondition.WrapMessage(err, "cannot create shed at %s", shedAbs)
	}
	return s, nil
}

// Repo returns the repo this shed manages files in.
func (s *Shed) Repo() *Repo {
	return s.repo
}

// Engine returns the underlying content store engine.
func (s *Shed) Engine() *content.Store {
	return s.engine
}

// Manage puts files under management.
//
// Each path must be an existing regular file not already managed. The
// content is uploaded to the store, the file is moved under the shed at
// a key versioned path, and a relative symlink replaces it.
//
// Paths already managed are skipped.
func (s *Shed) Manage(ctx context.Context, paths []string) error {
	var rels []string
	for _, path := range paths {
		rel, err := s.repo.RelPath(path)
		if err != nil {
			return err
		}
		if s.isManaged(rel) {
			s.l.Debug("already managed", zap.String("path", rel))
			continue
		}
		abs := filepath.Join(s.repo.Root(), rel)
		fi, err := os.Lstat(abs)
		switch {
		case err != nil:
			return status.ErrPrecondition.WrapMessage(err, "file not found: %s", rel)
		case fi.Mode()&os.ModeSymlink != 0:
			return status.ErrPrecondition.WrapMessage(nil, "path is an unmanaged symlink: %s", rel)
		case fi.IsDir():
			return status.ErrPrecondition.WrapMessage(nil, "path is a directory: %s", rel)
		case !fi.Mode().IsRegular():
			return status.ErrPrecondition.WrapMessage(nil, "path is not a regular file: %s", rel)
		}
		rels = append(rels, rel)
	}

	srcs := make([]string, 0, len(rels))
	for _, rel := range rels {
		srcs = append(srcs, filepath.Join(s.repo.Root(), rel))
	}
	keys, err := s.engine.PutMany(ctx, srcs)
	if err != nil {
		return err
	}

	for i, rel := range rels {
		if err := s.link(rel, keys[i]); err != nil {
			return err
		}
	}
	return nil
}

// link moves a repo relative file under the shed at its versioned path
// and leaves a relative symlink in its place.
func (s *Shed) link(rel string, key content.Key) error {
	versioned := versionedPath(rel, key)
	targetAbs, err := s.repo.AbsPath(filepath.Join(ShedRoot, versioned))
	if err != nil {
		return err
	}
	if _, err := os.Lstat(targetAbs); err == nil {
		return status.ErrShedCollision.WrapMessage(nil,
			"shed path already exists: %s. Delete it manually, but only if you're sure it's safe to do so", targetAbs)
	}
	if err := os.MkdirAll(filepath.Dir(targetAbs), 0755); err != nil {
		return status.ErrPrecondition.Wrap(err)
	}

	abs := filepath.Join(s.repo.Root(), rel)
	if err := os.Rename(abs, targetAbs); err != nil {
		return status.ErrPrecondition.WrapMessage(err, "cannot move %s into the shed", rel)
	}
	// relative link, so the checkout stays portable across clones
	linkTarget, err := filepath.Rel(filepath.Dir(abs), targetAbs)
	if err != nil {
		return status.ErrPrecondition.Wrap(err)
	}
	if err := os.Symlink(linkTarget, abs); err != nil {
		return status.ErrPrecondition.WrapMessage(err, "cannot symlink %s", rel)
	}
	s.l.Info("managed", zap.String("path", rel), zap.String("key", key.String()))
	return nil
}

// Sync fetches content for the given paths. Paths that are not dangling
// managed symlinks are skipped.
func (s *Shed) Sync(ctx context.Context, paths []string) error {
	keyToTargets := make(map[content.Key][]string)
	for _, path := range paths {
		rel, err := s.repo.RelPath(path)
		if err != nil {
			return err
		}
		target, ok := s.shedTarget(rel)
		if !ok {
			continue
		}
		targetAbs := filepath.Join(s.repo.Root(), target)
		if _, err := os.Stat(targetAbs); err == nil {
			continue
		}
		key, err := keyFromVersionedPath(target)
		if err != nil {
			return err
		}
		keyToTargets[key] = append(keyToTargets[key], targetAbs)
	}
	return s.engine.GetMany(ctx, keyToTargets)
}

// SyncAll syncs every managed file in the repo.
func (s *Shed) SyncAll(ctx context.Context) error {
	links, err := s.managedSymlinks()
	if err != nil {
		return err
	}
	return s.Sync(ctx, links)
}

// Resync refetches content for the given paths, discarding any local
// shed copy first. Use it to repair corrupted shed files.
func (s *Shed) Resync(ctx context.Context, paths []string) error {
	for _, path := range paths {
		rel, err := s.repo.RelPath(path)
		if err != nil {
			return err
		}
		target, ok := s.shedTarget(rel)
		if !ok {
			continue
		}
		targetAbs := filepath.Join(s.repo.Root(), target)
		if err := os.Remove(targetAbs); err != nil && !os.IsNotExist(err) {
			return status.ErrPrecondition.WrapMessage(err, "cannot discard shed copy of %s", rel)
		}
	}
	return s.Sync(ctx, paths)
}

// ResyncAll discards the entire shed and refetches every managed file.
func (s *Shed) ResyncAll(ctx context.Context) error {
	// resolve through the repo first, as a safety check on the rmtree
	shedAbs, err := s.repo.AbsPath(ShedRoot)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(shedAbs); err != nil {
		return status.ErrPrecondition.WrapMessage(err, "cannot remove shed at %s", shedAbs)
	}
	return s.SyncAll(ctx)
}

// Unmanage takes files out of management.
//
// Each path must be a managed symlink. The shed content is synced if
// missing, then copied back to the original location as a regular
// writable file. The shed and store copies are left alone: store
// entries are never deleted.
func (s *Shed) Unmanage(ctx context.Context, paths []string) error {
	for _, path := range paths {
		rel, err := s.repo.RelPath(path)
		if err != nil {
			return err
		}
		target, ok := s.shedTarget(rel)
		if !ok {
			return status.ErrPrecondition.WrapMessage(nil, "path is not managed: %s", rel)
		}
		if err := s.Sync(ctx, []string{rel}); err != nil {
			return err
		}

		abs := filepath.Join(s.repo.Root(), rel)
		targetAbs := filepath.Join(s.repo.Root(), target)
		fi, err := os.Stat(targetAbs)
		if err != nil {
			return status.ErrUnsynced.WrapMessage(err, "%s", rel)
		}
		// stage the copy next to the symlink and rename over it, so a
		// failed copy never leaves the path with neither symlink nor file
		stage := abs + ".unmanage-" + rand.LetterString(6)
		if err := copyRegular(targetAbs, stage, fi.Mode().Perm()|0200); err != nil {
			_ = os.Remove(stage)
			return err
		}
		if err := os.Rename(stage, abs); err != nil {
			_ = os.Remove(stage)
			return status.ErrPrecondition.WrapMessage(err, "cannot replace symlink %s", rel)
		}
		s.l.Info("unmanaged", zap.String("path", rel))
	}
	return nil
}

// Status reports how many files are managed and how many of those need
// syncing.
func (s *Shed) Status() (total int, unsynced int, err error) {
	links, err := s.managedSymlinks()
	if err != nil {
		return 0, 0, err
	}
	dangling, err := s.danglingOf(links)
	if err != nil {
		return 0, 0, err
	}
	return len(links), len(dangling), nil
}

// Synced lists managed files whose content is present, as repo relative
// paths in lexical order.
func (s *Shed) Synced() ([]string, error) {
	links, err := s.managedSymlinks()
	if err != nil {
		return nil, err
	}
	dangling, err := s.danglingOf(links)
	if err != nil {
		return nil, err
	}
	isDangling := make(map[string]bool, len(dangling))
	for _, p := range dangling {
		isDangling[p] = true
	}
	synced := make([]string, 0, len(links)-len(dangling))
	for _, p := range links {
		if !isDangling[p] {
			synced = append(synced, p)
		}
	}
	return synced, nil
}

// Unsynced lists managed files whose content is missing, as repo
// relative paths in lexical order.
func (s *Shed) Unsynced() ([]string, error) {
	links, err := s.managedSymlinks()
	if err != nil {
		return nil, err
	}
	return s.danglingOf(links)
}

func (s *Shed) danglingOf(links []string) ([]string, error) {
	var dangling []string
	for _, rel := range links {
		if _, err := os.Stat(filepath.Join(s.repo.Root(), rel)); err != nil {
			if !os.IsNotExist(err) {
				return nil, status.ErrPrecondition.Wrap(err)
			}
			dangling = append(dangling, rel)
		}
	}
	return dangling, nil
}

// shedTarget resolves a repo relative path to its symlink target,
// also repo relative, when the path is a managed symlink.
func (s *Shed) shedTarget(rel string) (string, bool) {
	abs := filepath.Join(s.repo.Root(), rel)
	fi, err := os.Lstat(abs)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return "", false
	}
	linkTarget, err := os.Readlink(abs)
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(linkTarget) {
		linkTarget = filepath.Join(filepath.Dir(abs), linkTarget)
	}
	target, err := s.repo.RelPath(linkTarget)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(target, filepath.FromSlash(ShedRoot)+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

func (s *Shed) isManaged(rel string) bool {
	_, ok := s.shedTarget(rel)
	return ok
}

// versionedPath prefixes the file name with the key, keeping the file
// extension last so tools that interpret extensions stay happy.
func versionedPath(rel string, key content.Key) string {
	dir, name := filepath.Split(rel)
	return filepath.Join(dir, key.String()+"."+name)
}

// keyFromVersionedPath recovers a key from a path built by
// versionedPath.
func keyFromVersionedPath(path string) (content.Key, error) {
	name := filepath.Base(path)
	i := strings.Index(name, ".")
	if i < 0 {
		return "", status.ErrInvalidKey.WrapMessage(nil, "no version in path %s", path)
	}
	return content.ParseKey(name[:i])
}

// copyRegular writes a fresh regular file at dst with the bytes of src.
func copyRegular(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return status.ErrPrecondition.Wrap(err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return status.ErrPrecondition.Wrap(err)
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		return status.ErrPrecondition.Wrap(err)
	}
	if err := out.Chmod(mode); err != nil {
		out.Close()
		return status.ErrPrecondition.Wrap(err)
	}
	return out.Close()
}
