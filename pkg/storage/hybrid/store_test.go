// Copyright © 2018 One Concern

package hybrid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/oneconcern/gitshed/pkg/storage/localfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/content_store/", func(w http.ResponseWriter, r *http.Request) {
		switch filepath.Base(r.URL.Path) {
		case "present_0644":
			_, _ = w.Write([]byte("remote bytes"))
		case "flaky_0644":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRawGet(t *testing.T) {
	srv := testServer(t)
	s := New(srv.URL, nil)
	dest := t.TempDir()

	err := s.RawGet(context.Background(), []string{"content_store/present_0644"}, dest)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dest, "present_0644"))
	require.NoError(t, err)
	assert.Equal(t, "remote bytes", string(b))
}

func TestRawGetErrors(t *testing.T) {
	srv := testServer(t)
	s := New(srv.URL, nil)
	dest := t.TempDir()

	err := s.RawGet(context.Background(), []string{"content_store/missing_0644"}, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrTransport)
	assert.Contains(t, err.Error(), "GET "+srv.URL+"/content_store/missing_0644")

	err = s.RawGet(context.Background(), []string{"content_store/flaky_0644"}, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrTransport)
	assert.Contains(t, err.Error(), "502")
}

func TestRawHas(t *testing.T) {
	srv := testServer(t)
	s := New(srv.URL, nil)

	has, err := s.RawHas(context.Background(), "content_store/present_0644")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.RawHas(context.Background(), "content_store/missing_0644")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.RawHas(context.Background(), "content_store/flaky_0644")
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrTransport)
}

func TestRawPutDelegates(t *testing.T) {
	srv := testServer(t)
	writeRoot := t.TempDir()
	s := New(srv.URL, localfs.New(writeRoot))

	src := filepath.Join(t.TempDir(), "staged_0600")
	require.NoError(t, os.WriteFile(src, []byte("outbound"), 0644))
	require.NoError(t, s.RawPut(context.Background(), []string{src}, "content_store"))

	b, err := os.ReadFile(filepath.Join(writeRoot, "content_store", "staged_0600"))
	require.NoError(t, err)
	assert.Equal(t, "outbound", string(b))
}

func TestRawPutWithoutWritePlane(t *testing.T) {
	srv := testServer(t)
	s := New(srv.URL, nil)

	err := s.RawPut(context.Background(), []string{"whatever"}, "content_store")
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrTransport)
}
