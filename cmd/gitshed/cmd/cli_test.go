// Copyright © 2018 One Concern

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/gitshed/pkg/errors"
	"github.com/oneconcern/gitshed/pkg/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t testing.TB, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))
	return path
}

func TestConfigLocal(t *testing.T) {
	cfg, err := newConfig(writeConfig(t, `{
		"exclude": [".pants.d"],
		"concurrency": {"get": 8, "put": 2},
		"content_store": {"local": {"root": "/var/tmp/shed-store"}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{".pants.d"}, cfg.Exclude)
	assert.Equal(t, 8, cfg.Concurrency.Get)
	assert.Equal(t, 2, cfg.Concurrency.Put)
	require.NotNil(t, cfg.ContentStore.Local)
	assert.Equal(t, "/var/tmp/shed-store", cfg.ContentStore.Local.Root)

	backend, err := cfg.backend(nil)
	require.NoError(t, err)
	assert.Contains(t, backend.String(), "localfs")
}

func TestConfigRemote(t *testing.T) {
	cfg, err := newConfig(writeConfig(t, `{
		"content_store": {"remote": {
			"host": "files.example.com",
			"root_path": "/srv/gitshed",
			"root_url": "http://files.example.com/gitshed",
			"timeout_secs": 30
		}}
	}`))
	require.NoError(t, err)
	require.NotNil(t, cfg.ContentStore.Remote)
	assert.Equal(t, 30, cfg.ContentStore.Remote.TimeoutSecs)

	backend, err := cfg.backend(nil)
	require.NoError(t, err)
	assert.Contains(t, backend.String(), "http://files.example.com/gitshed")
}

func TestConfigErrors(t *testing.T) {
	_, err := newConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, status.ErrConfig))

	_, err = newConfig(writeConfig(t, `{not json`))
	assert.True(t, errors.Is(err, status.ErrConfig))

	cfg, err := newConfig(writeConfig(t, `{"content_store": {}}`))
	require.NoError(t, err)
	_, err = cfg.backend(nil)
	assert.True(t, errors.Is(err, status.ErrConfig))

	cfg, err = newConfig(writeConfig(t, `{"content_store": {"remote": {"host": "h"}}}`))
	require.NoError(t, err)
	_, err = cfg.backend(nil)
	require.True(t, errors.Is(err, status.ErrConfig))
	assert.Contains(t, err.Error(), "content_store.remote.root_")

	cfg, err = newConfig(writeConfig(t, `{"content_store": {"local": {}}}`))
	require.NoError(t, err)
	_, err = cfg.backend(nil)
	require.True(t, errors.Is(err, status.ErrConfig))
	assert.Contains(t, err.Error(), "content_store.local.root")
}

func TestResolvePathArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.bin", "b.bin", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}
	argfile := filepath.Join(dir, "argfile")
	require.NoError(t, os.WriteFile(argfile, []byte("one\n\n two \n"), 0600))

	t.Cleanup(func() { gitshedFlags.paths.argfile = "" })
	gitshedFlags.paths.argfile = ""

	paths, err := resolvePathArgs([]string{filepath.Join(dir, "*.bin")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.bin"), filepath.Join(dir, "b.bin")}, paths)

	// unmatched globs stay literal so downstream reports file not found
	paths, err = resolvePathArgs([]string{filepath.Join(dir, "*.xyz")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "*.xyz")}, paths)

	gitshedFlags.paths.argfile = argfile
	paths, err = resolvePathArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, paths)
}

func TestCheckShedIgnored(t *testing.T) {
	root := t.TempDir()
	assert.Error(t, checkShedIgnored(root))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.pyc\n"), 0600))
	assert.True(t, errors.Is(checkShedIgnored(root), errShedNotIgnored))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.pyc\n.gitshed/\n"), 0600))
	assert.NoError(t, checkShedIgnored(root))
}
