// Copyright © 2018 One Concern

// Package rsync implements a content store backend that bulk-copies
// content over a secure shell transport.
//
// One rsync invocation moves a whole chunk of logical paths. Remote writes
// run with elevated privilege and create destination directories server
// side. Atomicity of remote writes comes from rsync's own
// rename-on-complete behavior.
package rsync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"time"

	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/oneconcern/gitshed/pkg/storage"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Minute

// runFunc spawns a command and reports its stdout and stderr.
type runFunc func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

func runCmd(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// Option configures an rsync store.
type Option func(*rsyncStore)

// Timeout bounds each rsync invocation.
func Timeout(d time.Duration) Option {
	return func(s *rsyncStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Logger sets a logger for this store.
func Logger(l *zap.Logger) Option {
	return func(s *rsyncStore) {
		if l != nil {
			s.l = l
		}
	}
}

// New creates a store copying content to and from rootPath on host.
func New(host, rootPath string, opts ...Option) storage.Store {
	s := &rsyncStore{
		host:     host,
		rootPath: rootPath,
		timeout:  defaultTimeout,
		l:        zap.NewNop(),
		run:      runCmd,
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

type rsyncStore struct {
	host     string
	rootPath string
	timeout  time.Duration
	l        *zap.Logger
	run      runFunc
}

func (s *rsyncStore) String() string {
	return "rsync@" + s.host + ":" + s.rootPath
}

func (s *rsyncStore) RawGet(ctx context.Context, logicalPaths []string, destDir string) error {
	return s.tryGet(ctx, logicalPaths, destDir)
}

func (s *rsyncStore) tryGet(ctx context.Context, logicalPaths []string, destDir string) error {
	// a single source argument: the remote shell splits on unescaped
	// whitespace, so several paths travel in one invocation
	remotePaths := make([]string, 0, len(logicalPaths))
	for _, p := range logicalPaths {
		remotePaths = append(remotePaths, escapeWhitespace(path.Join(s.rootPath, p)))
	}
	args := []string{"-acz", s.host + ":" + strings.Join(remotePaths, " "), destDir}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.l.Debug("rsync get", zap.Strings("args", args))
	_, stderr, err := s.run(ctx, "rsync", args...)
	if err != nil {
		return status.ErrTransport.WrapMessage(err,
			"failed to rsync from %s, command: rsync %s, stderr: %s",
			s.host, strings.Join(args, " "), stderr)
	}
	return nil
}

func (s *rsyncStore) RawPut(ctx context.Context, srcPaths []string, logicalDir string) error {
	remoteDir := path.Join(s.rootPath, logicalDir)
	args := []string{
		"-acz",
		// create the destination directory server-side; rsync itself
		// finishes each file with an atomic rename
		fmt.Sprintf("--rsync-path=sudo mkdir -p %s && sudo rsync", remoteDir),
	}
	args = append(args, srcPaths...)
	args = append(args, s.host+":"+remoteDir)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.l.Debug("rsync put", zap.Strings("args", args))
	_, stderr, err := s.run(ctx, "rsync", args...)
	if err != nil {
		return status.ErrTransport.WrapMessage(err,
			"failed to rsync to %s:%s, command: rsync %s, stderr: %s",
			s.host, remoteDir, strings.Join(args, " "), stderr)
	}
	return nil
}

// RawHas fetches the content to a throwaway location: the transport has no
// cheap remote-exists primitive, and this is off the hot path anyway. True
// iff a subsequent get would succeed.
func (s *rsyncStore) RawHas(ctx context.Context, logicalPath string) (bool, error) {
	tmpDir, err := os.MkdirTemp("", "gitshed-has-")
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(tmpDir)
	if err = s.tryGet(ctx, []string{logicalPath}, tmpDir); err != nil {
		return false, nil
	}
	return true, nil
}

// escapeWhitespace backslash-escapes spaces for the remote shell. The
// rsync source argument space-separates multiple remote paths, so spaces
// within the paths themselves must survive.
func escapeWhitespace(s string) string {
	return strings.ReplaceAll(s, " ", `\ `)
}
