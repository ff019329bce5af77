// Copyright © 2018 One Concern

// Package content implements the verified content store engine.
//
// An entry in the store is identified externally by a Key and internally by
// a logical path. The engine batches, deduplicates and parallelizes
// transfers, verifies fetched content against its key, and delegates raw
// byte movement to a storage.Store backend.
//
// There is no delete functionality, by design. Once a file's metadata has
// been committed, the content it references must live for all time, in case
// anyone inspects the repo at that commit some time in the future.
package content

import (
	"context"
	"path"
	"sort"

	"github.com/oneconcern/gitshed/pkg/progress"
	"github.com/oneconcern/gitshed/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultChunkSize      = 20
	defaultGetConcurrency = 12
	defaultPutConcurrency = 4

	// storeDir is the single directory holding all content. Do *not*
	// change the logical path layout for existing keys: that severs the
	// association of historical symlinks to their content.
	storeDir = "content_store"
)

// Store is the content store engine over a raw transfer backend.
type Store struct {
	backend        storage.Store
	chunkSize      int
	getConcurrency int
	putConcurrency int
	sink           progress.Sink
	l              *zap.Logger
}

// New creates a content store engine over backend.
func New(backend storage.Store, opts ...Option) *Store {
	s := &Store{
		backend:        backend,
		chunkSize:      defaultChunkSize,
		getConcurrency: defaultGetConcurrency,
		putConcurrency: defaultPutConcurrency,
		sink:           progress.Nop{},
		l:              zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Backend reports the raw transfer backend in use.
func (s *Store) Backend() storage.Store {
	return s.backend
}

// PathFromKey returns the logical path at which the content for key lives.
//
// The trivial layout puts everything under a single directory. The mapping
// for any given key is fixed for the lifetime of a store.
func (s *Store) PathFromKey(key Key) string {
	return storeDir + "/" + string(key)
}

// putUnit is one staged upload: a source file and its name in the store.
type putUnit struct {
	srcPath  string
	basename string
}

// PutMany puts the content of the given files into the store and returns
// one key per source path, in order.
//
// Several sources with identical content and permissions map to a single
// logical path and are uploaded once, but each still counts toward the
// visible progress total.
func (s *Store) PutMany(ctx context.Context, srcPaths []string) ([]Key, error) {
	if len(srcPaths) == 0 {
		return nil, nil
	}

	keys := make([]Key, 0, len(srcPaths))

	// cardinality tracks how many user files one logical path stands in
	// for, so the progress bar shows the numbers callers expect
	cardinality := make(map[string]int, len(srcPaths))

	// bucket work by destination store directory: one raw put call can
	// move several contents into a single directory (a single bucket with
	// the current layout, kept for sharded layouts)
	dirToWork := make(map[string][]putUnit)

	for _, srcPath := range srcPaths {
		key, err := KeyFromFile(srcPath)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		csPath := s.PathFromKey(key)
		if _, seen := cardinality[csPath]; !seen {
			dir, basename := path.Split(csPath)
			dir = path.Clean(dir)
			dirToWork[dir] = append(dirToWork[dir], putUnit{srcPath: srcPath, basename: basename})
		}
		cardinality[csPath]++
	}

	type putChunk struct {
		dir  string
		work []putUnit
	}
	var chunks []putChunk
	for _, dir := range sortedDirs(dirToWork) {
		work := dirToWork[dir]
		for i := 0; i < len(work); i += s.chunkSize {
			end := i + s.chunkSize
			if end > len(work) {
				end = len(work)
			}
			chunks = append(chunks, putChunk{dir: dir, work: work[i:end]})
		}
	}

	s.sink.SetTotal(len(srcPaths))
	s.l.Debug("put batch",
		zap.Int("files", len(srcPaths)),
		zap.Int("uploads", len(cardinality)),
		zap.Int("chunks", len(chunks)),
		zap.Stringer("backend", s.backend),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.putConcurrency)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			if err := s.putChunk(gctx, chunk.dir, chunk.work); err != nil {
				return err
			}
			n := 0
			for _, unit := range chunk.work {
				n += cardinality[chunk.dir+"/"+unit.basename]
			}
			s.sink.Increment(n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// GetMany fetches content from the store and publishes it to target paths.
//
// The argument maps each key to the target paths wanting its content: many
// targets may share one key, and each key is fetched only once.
func (s *Store) GetMany(ctx context.Context, keyToTargets map[Key][]string) error {
	if len(keyToTargets) == 0 {
		return nil
	}

	total := 0
	for _, targets := range keyToTargets {
		total += len(targets)
	}

	keys := make([]Key, 0, len(keyToTargets))
	for key := range keyToTargets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var chunks []map[Key][]string
	for i := 0; i < len(keys); i += s.chunkSize {
		end := i + s.chunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := make(map[Key][]string, end-i)
		for _, key := range keys[i:end] {
			chunk[key] = keyToTargets[key]
		}
		chunks = append(chunks, chunk)
	}

	s.sink.SetTotal(total)
	s.l.Debug("get batch",
		zap.Int("files", total),
		zap.Int("fetches", len(keys)),
		zap.Int("chunks", len(chunks)),
		zap.Stringer("backend", s.backend),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.getConcurrency)
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			if err := s.getChunk(gctx, chunk); err != nil {
				return err
			}
			n := 0
			for _, targets := range chunk {
				n += len(targets)
			}
			s.sink.Increment(n)
			return nil
		})
	}
	return g.Wait()
}

// Has checks for the existence of content under key. Used only for
// diagnostics and setup verification, never on the hot path.
func (s *Store) Has(ctx context.Context, key Key) (bool, error) {
	return s.backend.RawHas(ctx, s.PathFromKey(key))
}

func sortedDirs(dirToWork map[string][]putUnit) []string {
	dirs := make([]string, 0, len(dirToWork))
	for dir := range dirToWork {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
