package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/domainsel/internal/termdist"
)

// Store is a directory of cache entries plus an optional manifest. Concurrent
// processes sharing a directory are not coordinated.
type Store struct {
	dir         string
	manifest    *Manifest
	useManifest bool
	runID       string
	logger      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for cache hits, misses and writes.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithoutManifest disables the SQLite manifest.
func WithoutManifest() Option {
	return func(s *Store) { s.useManifest = false }
}

// Open creates dir if needed and opens its manifest.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	s := &Store{dir: dir, runID: uuid.NewString(), logger: zap.NewNop(), useManifest: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.useManifest {
		m, err := OpenManifest(filepath.Join(dir, ManifestFile))
		if err != nil {
			return nil, err
		}
		s.manifest = m
	}
	return s, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// RunID identifies this process in manifest rows.
func (s *Store) RunID() string { return s.runID }

// Manifest returns the manifest, or nil when disabled.
func (s *Store) Manifest() *Manifest { return s.manifest }

// Path returns the file path of key.
func (s *Store) Path(key Key) string {
	return filepath.Join(s.dir, key.Filename())
}

// Exists reports whether an entry for key is on disk.
func (s *Store) Exists(key Key) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Close closes the manifest.
func (s *Store) Close() error {
	if s.manifest == nil {
		return nil
	}
	return s.manifest.Close()
}

type codec[T any] struct {
	encode func(io.Writer, T) error
	decode func(io.Reader) (T, error)
}

var vectorCodec = codec[[]float64]{encode: encodeNPY, decode: decodeNPY}

var modelCodec = codec[*termdist.TFIDFModel]{
	encode: func(w io.Writer, m *termdist.TFIDFModel) error { return gob.NewEncoder(w).Encode(m) },
	decode: func(r io.Reader) (*termdist.TFIDFModel, error) {
		var m termdist.TFIDFModel
		if err := gob.NewDecoder(r).Decode(&m); err != nil {
			return nil, err
		}
		return &m, nil
	},
}

// Vector returns the cached vector for key, or runs compute and persists its
// result. With bypass set, any existing entry is ignored and overwritten.
func (s *Store) Vector(ctx context.Context, key Key, bypass bool, compute func(context.Context) ([]float64, error)) ([]float64, error) {
	return getOrCompute(ctx, s, key, bypass, vectorCodec, compute)
}

// Model returns the cached TF-IDF model for key, or fits and persists one.
func (s *Store) Model(ctx context.Context, key Key, bypass bool, compute func(context.Context) (*termdist.TFIDFModel, error)) (*termdist.TFIDFModel, error) {
	return getOrCompute(ctx, s, key, bypass, modelCodec, compute)
}

func getOrCompute[T any](ctx context.Context, s *Store, key Key, bypass bool, c codec[T], compute func(context.Context) (T, error)) (T, error) {
	path := s.Path(key)
	if !bypass {
		v, err := load(path, c)
		if err == nil {
			s.logger.Info("cache hit", zap.String("key", key.String()), zap.String("path", path))
			return v, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			var zero T
			return zero, fmt.Errorf("load cache entry %s: %w", path, err)
		}
		s.logger.Debug("cache miss", zap.String("key", key.String()))
	} else {
		s.logger.Info("cache bypassed", zap.String("key", key.String()))
	}

	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := s.persist(ctx, key, path, func(w io.Writer) error { return c.encode(w, v) }); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func load[T any](path string, c codec[T]) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return c.decode(f)
}

// persist writes through a temporary file renamed into place, then records
// the entry in the manifest.
func (s *Store) persist(ctx context.Context, key Key, path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key.Filename(), err)
	}
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry %s: %w", key.Filename(), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("install cache entry %s: %w", key.Filename(), err)
	}
	s.logger.Info("cached", zap.String("key", key.String()), zap.String("path", path), zap.Int("bytes", buf.Len()))

	if s.manifest == nil {
		return nil
	}
	size, sum, err := hashFile(path)
	if err != nil {
		return err
	}
	return s.manifest.Record(ctx, key, size, sum, s.runID)
}
