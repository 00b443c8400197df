// Package store keeps the desk's whole state in one JSON document on disk.
//
// Reads are served from an in-memory copy. Writes go through Update, which
// serializes read-modify-write cycles and replaces the file atomically.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	apperrors "exchangedesk/internal/errors"
	"exchangedesk/internal/model"
)

// ErrNotInitialized is returned by Update before Initialize succeeded.
var ErrNotInitialized = errors.New("store not initialized")

// Mutator changes the document in place. Returning an error aborts the update.
type Mutator func(doc *model.Document) error

// SnapshotHook receives the bytes of every successfully persisted document.
type SnapshotHook func(ctx context.Context, data []byte)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithSnapshotHook registers fn to run after each successful write.
func WithSnapshotHook(fn SnapshotHook) Option {
	return func(s *Store) {
		s.onPersist = fn
	}
}

// Store is the file-backed document store.
type Store struct {
	path string

	// mu is held for a whole read-modify-write-persist cycle.
	mu       sync.Mutex
	doc      atomic.Pointer[model.Document]
	degraded error

	writeFile func(name string, data []byte) error
	rename    func(oldpath, newpath string) error
	onPersist SnapshotHook
	logger    *zap.Logger
}

// New creates a store for the document at path. Call Initialize before use.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:      path,
		writeFile: writeSynced,
		rename:    os.Rename,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the data file.
func (s *Store) Path() string {
	return s.path
}

// Initialize loads the data file, or writes defaults when it does not exist yet.
// A file that is not valid JSON is a fatal error.
func (s *Store) Initialize(ctx context.Context, defaults *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("%w: create data dir: %w", apperrors.ErrStorageFailure, err)
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if defaults == nil {
			defaults = &model.Document{}
		}
		doc := defaults.Clone()
		if err := s.persist(doc); err != nil {
			return err
		}
		s.doc.Store(doc)
		s.logger.Info("created data file with defaults", zap.String("path", s.path))
		return nil
	case err != nil:
		return fmt.Errorf("%w: read %s: %w", apperrors.ErrStorageFailure, s.path, err)
	}

	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.doc.Store(doc.Clone())
	s.logger.Info("loaded data file",
		zap.String("path", s.path),
		zap.Int("users", len(doc.Users)),
		zap.Int("currencies", len(doc.Currencies)),
		zap.Int("sessions", len(doc.Sessions)))
	return nil
}

// Get returns a copy of the current document, or nil before Initialize.
func (s *Store) Get() *model.Document {
	return s.doc.Load().Clone()
}

// Update applies fn to a copy of the document, persists the result and only then
// makes it visible. When fn fails or the write fails, the document stays as it was.
// Concurrent calls are serialized.
func (s *Store) Update(ctx context.Context, fn Mutator) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded != nil {
		return fmt.Errorf("%w: writes disabled after earlier failure: %w", apperrors.ErrStorageFailure, s.degraded)
	}
	current := s.doc.Load()
	if current == nil {
		return ErrNotInitialized
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return err
	}

	data, err := s.persistBytes(next)
	if err != nil {
		s.degraded = err
		s.logger.Error("persist data file, refusing further writes",
			zap.String("path", s.path), zap.Error(err))
		return err
	}
	s.doc.Store(next)

	if s.onPersist != nil {
		s.onPersist(ctx, data)
	}
	return nil
}

// Healthy returns the write failure that put the store into read-only mode, if any.
func (s *Store) Healthy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) persist(doc *model.Document) error {
	_, err := s.persistBytes(doc)
	return err
}

func (s *Store) persistBytes(doc *model.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: marshal document: %w", apperrors.ErrStorageFailure, err)
	}

	tmp := s.path + ".tmp"
	if err := s.writeFile(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("%w: write %s: %w", apperrors.ErrStorageFailure, tmp, err)
	}
	if err := s.rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("%w: rename %s: %w", apperrors.ErrStorageFailure, tmp, err)
	}
	return data, nil
}

// writeSynced writes data and flushes it to stable storage before returning.
func writeSynced(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
