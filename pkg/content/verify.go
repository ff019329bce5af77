// Copyright © 2018 One Concern

package content

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oneconcern/gitshed/internal/rand"
	"github.com/oneconcern/gitshed/pkg/status"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

const (
	// checkNamespace prefixes probe objects, so that detail-oriented
	// admins can identify and delete them if they choose
	checkNamespace = "GITSHED_CLIENT_CHECK_DELETABLE"

	checkBasename = "GITSHED_CLIENT_CHECK_KEY"

	probeSize = 1024
)

// VerifySetup checks that this content store works from this client.
//
// It writes a disposable probe object under a sacrificial namespace and
// exercises the existence, write and read paths end to end, without
// touching real data. Probe paths carry a fresh random suffix, so re-runs
// never collide.
//
// Not a build-time test but a runtime check that all the moving parts work.
func (s *Store) VerifySetup(ctx context.Context) error {
	checkDir := fmt.Sprintf("%s/%s/%s", checkNamespace, storeDir, ksuid.New().String())
	checkPath := checkDir + "/" + checkBasename
	s.l.Debug("verifying content store setup", zap.String("probe", checkPath), zap.Stringer("backend", s.backend))

	has, err := s.backend.RawHas(ctx, checkPath)
	if err != nil {
		return status.ErrSetupCheck.Wrap(err)
	}
	if has {
		return status.ErrSetupCheck.Wrap(fmt.Errorf("probe key %s unexpectedly found", checkPath))
	}

	tmpDir, err := os.MkdirTemp("", "gitshed.")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	probe := filepath.Join(tmpDir, checkBasename)
	payload := rand.Bytes(probeSize)
	if err = os.WriteFile(probe, payload, 0644); err != nil {
		return err
	}
	if err = s.backend.RawPut(ctx, []string{probe}, checkDir); err != nil {
		return status.ErrSetupCheck.Wrap(err)
	}

	has, err = s.backend.RawHas(ctx, checkPath)
	if err != nil {
		return status.ErrSetupCheck.Wrap(err)
	}
	if !has {
		return status.ErrSetupCheck.Wrap(fmt.Errorf("probe key %s not found: content store write failed?", checkPath))
	}

	roundtripDir := filepath.Join(tmpDir, "roundtripped")
	if err = os.Mkdir(roundtripDir, 0755); err != nil {
		return err
	}
	if err = s.backend.RawGet(ctx, []string{checkPath}, roundtripDir); err != nil {
		return status.ErrSetupCheck.Wrap(err)
	}
	roundtripped, err := os.ReadFile(filepath.Join(roundtripDir, checkBasename))
	if err != nil {
		return status.ErrSetupCheck.Wrap(err)
	}
	if !bytes.Equal(payload, roundtripped) {
		return status.ErrSetupCheck.Wrap(fmt.Errorf("mismatched probe content fetched from %s", s.backend))
	}
	return nil
}
