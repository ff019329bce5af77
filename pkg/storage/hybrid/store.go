// Copyright © 2018 One Concern

// Package hybrid implements a content store backend with asymmetric read
// and write planes: reads stream over plain HTTP (read replicas are cheap
// to expose), while writes delegate to a privileged store, rsync over a
// secure shell in production.
package hybrid

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/oneconcern/gitshed/pkg/storage"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

// Option configures a hybrid store.
type Option func(*hybridStore)

// Timeout bounds each HTTP request.
func Timeout(d time.Duration) Option {
	return func(s *hybridStore) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// Logger sets a logger for this store.
func Logger(l *zap.Logger) Option {
	return func(s *hybridStore) {
		if l != nil {
			s.l = l
		}
	}
}

// New creates a store reading from rootURL and writing through write.
func New(rootURL string, write storage.Store, opts ...Option) storage.Store {
	s := &hybridStore{
		rootURL: rootURL,
		write:   write,
		client:  &http.Client{Timeout: defaultTimeout},
		l:       zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

type hybridStore struct {
	rootURL string
	write   storage.Store
	client  *http.Client
	l       *zap.Logger
}

func (s *hybridStore) String() string {
	return "hybrid@" + s.rootURL
}

func (s *hybridStore) url(logicalPath string) string {
	return s.rootURL + "/" + logicalPath
}

func (s *hybridStore) RawGet(ctx context.Context, logicalPaths []string, destDir string) error {
	for _, logicalPath := range logicalPaths {
		if err := s.getOne(ctx, logicalPath, destDir); err != nil {
			return err
		}
	}
	return nil
}

func (s *hybridStore) getOne(ctx context.Context, logicalPath, destDir string) error {
	url := s.url(logicalPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return status.ErrTransport.WrapMessage(err, "GET %s", url)
	}
	s.l.Debug("http get", zap.String("url", url))
	resp, err := s.client.Do(req)
	if err != nil {
		return status.ErrTransport.WrapMessage(err, "GET %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return status.ErrTransport.WrapMessage(
			fmt.Errorf("status %s", resp.Status), "GET %s", url)
	}

	dest := filepath.Join(destDir, path.Base(logicalPath))
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return status.ErrTransport.WrapMessage(err, "GET %s", url)
	}
	if _, err = storage.PipeIO(out, resp.Body); err != nil {
		_ = out.Close()
		return status.ErrTransport.WrapMessage(err, "GET %s", url)
	}
	return out.Close()
}

func (s *hybridStore) RawPut(ctx context.Context, srcPaths []string, logicalDir string) error {
	if s.write == nil {
		return status.ErrTransport.Wrap(fmt.Errorf("store %s has no write plane", s))
	}
	return s.write.RawPut(ctx, srcPaths, logicalDir)
}

func (s *hybridStore) RawHas(ctx context.Context, logicalPath string) (bool, error) {
	url := s.url(logicalPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, status.ErrTransport.WrapMessage(err, "HEAD %s", url)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, status.ErrTransport.WrapMessage(err, "HEAD %s", url)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, status.ErrTransport.WrapMessage(
			fmt.Errorf("status %s", resp.Status), "HEAD %s", url)
	}
}
