// Copyright © 2018 One Concern

package content

import (
	"github.com/oneconcern/gitshed/pkg/progress"
	"go.uber.org/zap"
)

// Option to configure the content store engine
type Option func(*Store)

// ChunkSize sets how many transfers travel in one raw backend call.
//
// A tuning knob, not a correctness parameter: batch outcomes are identical
// for any chunk size.
func ChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// GetConcurrency sets the worker pool width for fetches.
func GetConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.getConcurrency = n
		}
	}
}

// PutConcurrency sets the worker pool width for uploads. Sized for
// outbound bandwidth rather than CPU, so the default is small.
func PutConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.putConcurrency = n
		}
	}
}

// Progress sets the sink receiving per-batch completion updates.
func Progress(sink progress.Sink) Option {
	return func(s *Store) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// Logger sets a logger for the engine.
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}
