// Copyright © 2018 One Concern

package rsync

import (
	"context"
	"errors"
	"testing"

	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	args []string
}

func fakeStore(t *testing.T, calls *[]recordedCall, fail error, stderr string) *rsyncStore {
	t.Helper()
	s, ok := New("storehost", "/srv/content").(*rsyncStore)
	require.True(t, ok)
	s.run = func(ctx context.Context, name string, args ...string) (string, string, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return "", stderr, fail
	}
	return s
}

func TestRawGetCommand(t *testing.T) {
	var calls []recordedCall
	s := fakeStore(t, &calls, nil, "")

	err := s.RawGet(context.Background(),
		[]string{"content_store/abc_0644", "content_store/with space_0755"}, "/tmp/dest")
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "rsync", calls[0].name)
	assert.Equal(t, []string{
		"-acz",
		`storehost:/srv/content/content_store/abc_0644 /srv/content/content_store/with\ space_0755`,
		"/tmp/dest",
	}, calls[0].args)
}

func TestRawPutCommand(t *testing.T) {
	var calls []recordedCall
	s := fakeStore(t, &calls, nil, "")

	err := s.RawPut(context.Background(), []string{"/stage/aaa", "/stage/bbb"}, "content_store")
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{
		"-acz",
		"--rsync-path=sudo mkdir -p /srv/content/content_store && sudo rsync",
		"/stage/aaa",
		"/stage/bbb",
		"storehost:/srv/content/content_store",
	}, calls[0].args)
}

func TestTransportErrorDiagnostics(t *testing.T) {
	var calls []recordedCall
	s := fakeStore(t, &calls, errors.New("exit status 23"), "rsync: link_stat failed")

	err := s.RawGet(context.Background(), []string{"content_store/abc_0644"}, "/tmp/dest")
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrTransport)
	assert.Contains(t, err.Error(), "rsync -acz")
	assert.Contains(t, err.Error(), "link_stat failed")
	assert.Contains(t, err.Error(), "exit status 23")
}

func TestRawHas(t *testing.T) {
	var calls []recordedCall
	s := fakeStore(t, &calls, nil, "")

	has, err := s.RawHas(context.Background(), "content_store/abc_0644")
	require.NoError(t, err)
	assert.True(t, has)

	s = fakeStore(t, &calls, errors.New("exit status 23"), "")
	has, err = s.RawHas(context.Background(), "content_store/abc_0644")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestEscapeWhitespace(t *testing.T) {
	assert.Equal(t, `a\ b\ \ c`, escapeWhitespace("a b  c"))
	assert.Equal(t, "nospace", escapeWhitespace("nospace"))
}
