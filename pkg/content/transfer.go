// Copyright © 2018 One Concern

package content

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/oneconcern/gitshed/pkg/storage"
	"go.uber.org/zap"
)

// getChunk fetches the content for a set of keys into a private temporary
// directory, verifies each file against its key, and only then publishes
// it to its target paths. A corrupt fetch never reaches a target path.
func (s *Store) getChunk(ctx context.Context, keyToTargets map[Key][]string) error {
	tmpDir, err := os.MkdirTemp("", "gitshed.")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	logicalPaths := make([]string, 0, len(keyToTargets))
	for key := range keyToTargets {
		logicalPaths = append(logicalPaths, s.PathFromKey(key))
	}
	if err = s.backend.RawGet(ctx, logicalPaths, tmpDir); err != nil {
		return err
	}

	for key, targets := range keyToTargets {
		fetched := filepath.Join(tmpDir, path.Base(s.PathFromKey(key)))
		if err = s.verify(fetched, key); err != nil {
			return err
		}
		if err = publish(fetched, targets); err != nil {
			return err
		}
		s.l.Debug("published", zap.String("key", key.String()), zap.Strings("targets", targets))
	}
	return nil
}

// verify repairs the fetched file's mode from the key (read planes such as
// HTTP don't carry permission bits), then recomputes fingerprint and mode
// and compares both against the key.
func (s *Store) verify(fetched string, key Key) error {
	if err := os.Chmod(fetched, key.Mode()); err != nil {
		return err
	}
	sha, err := FingerprintFile(fetched)
	if err != nil {
		return err
	}
	if sha != key.Fingerprint() {
		return status.ErrIntegrity.Wrap(
			fmt.Errorf("content sha mismatch for %s: expected %s but got %s", key, key.Fingerprint(), sha))
	}
	mode, err := FileModeString(fetched)
	if err != nil {
		return err
	}
	if mode != key.ModeString() {
		return status.ErrIntegrity.Wrap(
			fmt.Errorf("file permission mismatch for %s: expected %s but got %s", key, key.ModeString(), mode))
	}
	return nil
}

// publish moves a verified temp file to its target paths: a copy for all
// but the last target and an atomic rename for the last one, saving a
// redundant copy.
func publish(fetched string, targets []string) error {
	if len(targets) == 0 {
		return nil
	}
	for _, target := range targets {
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
	}
	for _, target := range targets[:len(targets)-1] {
		if err := copyFile(fetched, target); err != nil {
			return err
		}
	}
	last := targets[len(targets)-1]
	if err := os.Rename(fetched, last); err != nil {
		// the temp dir may live on another device
		if copyErr := copyFile(fetched, last); copyErr != nil {
			return err
		}
	}
	return nil
}

// putChunk stages sources into a private temporary directory under their
// store basenames, marks them read-only, and hands the batch to the
// backend. Atomicity of the remote write is the backend's concern.
func (s *Store) putChunk(ctx context.Context, csDir string, work []putUnit) error {
	tmpDir, err := os.MkdirTemp("", "gitshed.")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	staged := make([]string, 0, len(work))
	for _, unit := range work {
		stage := filepath.Join(tmpDir, unit.basename)
		if err = linkOrCopy(unit.srcPath, stage); err != nil {
			return err
		}
		// store content must not be mutated through any ordinary handle
		if err = makeReadOnly(stage); err != nil {
			return err
		}
		staged = append(staged, stage)
	}
	return s.backend.RawPut(ctx, staged, csDir)
}

// linkOrCopy hard-links src to dest, falling back to a plain copy where
// hard links aren't supported (e.g. across filesystems).
func linkOrCopy(src, dest string) error {
	if err := os.Link(src, dest); err == nil {
		return nil
	}
	return copyFile(src, dest)
}

// copyFile copies src to dest preserving the file mode.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
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
	return os.Chmod(dest, fi.Mode().Perm()|modeExtraBits(fi.Mode()))
}

func modeExtraBits(mode os.FileMode) os.FileMode {
	return mode & (os.ModeSetuid | os.ModeSetgid | os.ModeSticky)
}

// makeReadOnly drops all write bits from the file at path.
func makeReadOnly(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, fi.Mode().Perm()&^os.FileMode(writeBits)|modeExtraBits(fi.Mode()))
}
