// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
)

// Store implementations move raw bytes between local files and logical
// content store paths.
//
// Logical paths always use forward slash separators, regardless of the
// filesystem separator on the client. Content written under a logical path
// is never mutated or deleted afterwards, so implementations may freely
// race concurrent puts of the same path.
//
// A Store needn't worry about data corruption: fetched content is verified
// against its key before being published to its true location, and content
// to put has already been staged read-only.
type Store interface {
	String() string

	// RawGet fetches the content at each logical path into destDir, using
	// the basename of each logical path as the local filename. Basenames
	// within one call are unique. destDir is guaranteed to exist.
	RawGet(ctx context.Context, logicalPaths []string, destDir string) error

	// RawPut writes each local file under the logical directory logicalDir,
	// using the basename of each source file as its name there. The remote
	// write must be atomic (e.g. write-then-rename).
	RawPut(ctx context.Context, srcPaths []string, logicalDir string) error

	// RawHas reports whether content exists at a logical path. Off the hot
	// path: used for diagnostics and setup verification only.
	RawHas(ctx context.Context, logicalPath string) (bool, error)
}

// PipeIO copies reader to writer with a large fixed-size buffer, and
// reports the number of bytes written.
func PipeIO(writer io.Writer, reader io.Reader) (n int64, err error) {
	buf := make([]byte, 1024*1024)
	return io.CopyBuffer(writer, reader, buf)
}
