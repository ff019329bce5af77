// Copyright © 2018 One Concern

package content

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/oneconcern/gitshed/pkg/errors"
	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/oneconcern/gitshed/pkg/storage"
	"github.com/oneconcern/gitshed/pkg/storage/localfs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySetup(t *testing.T) {
	storeRoot := t.TempDir()
	engine := New(localfs.New(storeRoot))

	require.NoError(t, engine.VerifySetup(context.Background()))

	// probe objects land under the sacrificial namespace only
	entries, err := os.ReadDir(storeRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, checkNamespace, entries[0].Name())
}

func TestVerifySetupRepeatable(t *testing.T) {
	engine := New(localfs.New(t.TempDir()))
	ctx := context.Background()

	// probe paths carry a fresh run id, so re-runs never collide
	require.NoError(t, engine.VerifySetup(ctx))
	require.NoError(t, engine.VerifySetup(ctx))
}

// erroringPutStore fails every upload.
type erroringPutStore struct {
	storage.Store
}

func (e *erroringPutStore) RawPut(ctx context.Context, srcPaths []string, logicalDir string) error {
	return fmt.Errorf("connection refused")
}

// lyingPutStore accepts uploads without storing anything.
type lyingPutStore struct {
	storage.Store
}

func (l *lyingPutStore) RawPut(ctx context.Context, srcPaths []string, logicalDir string) error {
	return nil
}

// erroringGetStore fails every fetch.
type erroringGetStore struct {
	storage.Store
}

func (e *erroringGetStore) RawGet(ctx context.Context, logicalPaths []string, destDir string) error {
	return fmt.Errorf("connection reset")
}

func TestVerifySetupBrokenBackends(t *testing.T) {
	ctx := context.Background()

	for name, backend := range map[string]storage.Store{
		"failing put": &erroringPutStore{Store: localfs.New(t.TempDir())},
		"silent put":  &lyingPutStore{Store: localfs.New(t.TempDir())},
		"failing get": &erroringGetStore{Store: localfs.New(t.TempDir())},
		"corrupt get": &brokenGetStore{Store: localfs.New(t.TempDir())},
	} {
		err := New(backend).VerifySetup(ctx)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, status.ErrSetupCheck), "%s: got %v", name, err)
	}
}
