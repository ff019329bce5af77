// Package status declares the error constants returned throughout gitshed.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between packages and their
// collaborators.
package status

import "github.com/oneconcern/gitshed/pkg/errors"

var (
	// Sentinel errors, grouped by kind.

	// ErrConfig indicates a missing or invalid configuration key
	ErrConfig = errors.New("invalid gitshed configuration")

	// ErrInvalidKey indicates a malformed content key. Keys end up embedded in
	// filesystem paths and symlink targets, so malformed ones are never tolerated
	ErrInvalidKey = errors.New("invalid content key")

	// ErrPathOutsideRepo indicates a path that escapes the repo root
	ErrPathOutsideRepo = errors.New("path is not under the repo root")

	// ErrIntegrity indicates that fetched content does not match its key
	ErrIntegrity = errors.New("content integrity mismatch")

	// ErrShedCollision indicates that a destination path in the shed already exists
	ErrShedCollision = errors.New("shed path already exists")

	// ErrTransport indicates a failed raw transfer to or from a backend
	ErrTransport = errors.New("content store transport error")

	// ErrPrecondition indicates an operation on a path in the wrong state,
	// e.g. managing a directory or an unmanaged symlink
	ErrPrecondition = errors.New("path precondition failed")

	// ErrNotExists indicates that the object does not exist on storage
	ErrNotExists = errors.New("object doesn't exist")

	// ErrSetupCheck indicates that the end-to-end content store check failed
	ErrSetupCheck = errors.New("content store setup check failed")

	// ErrUnsynced indicates an operation that requires local content on a
	// dangling managed symlink
	ErrUnsynced = errors.New("managed file has no local content")
)
