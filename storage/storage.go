package storage

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"taskboard/domain"
)

// DefaultKey is the well-known key the board snapshot is stored under.
const DefaultKey = "taskAppState"

// ErrNotFound is returned by a Backend when no value exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// Backend is a local key-value store able to hold one snapshot per key.
type Backend interface {
	Name() string
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// PersistError reports a snapshot that could not be written.
type PersistError struct {
	Op      string
	Backend string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s snapshot via %s: %v", e.Op, e.Backend, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Storage provides access to the persisted board snapshot. It is the only
// component that talks to the backend.
type Storage struct {
	backend Backend
	key     string
	log     *log.Logger
}

// New creates a Storage reading and writing key on backend.
func New(backend Backend, key string, logger *log.Logger) *Storage {
	if backend == nil {
		panic("storage.New: backend is nil")
	}
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Storage{backend: backend, key: key, log: logger}
}

// Load returns the stored board. It reports false when nothing has been
// stored yet or when the stored payload is unreadable, so callers fall back
// to the seed board. Load never fails.
func (s *Storage) Load(ctx context.Context) (domain.Board, bool) {
	data, err := s.backend.Read(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).WithFields(log.Fields{"backend": s.backend.Name(), "key": s.key}).Warn("failed to read board snapshot")
		}
		return domain.Board{}, false
	}
	b, err := Decode(data)
	if err != nil {
		s.log.WithError(err).WithFields(log.Fields{"backend": s.backend.Name(), "key": s.key, "bytes": len(data)}).Warn("discarding unreadable board snapshot")
		return domain.Board{}, false
	}
	return b, true
}

// Save overwrites the stored snapshot with b.
func (s *Storage) Save(ctx context.Context, b domain.Board) error {
	data, err := Encode(b)
	if err != nil {
		return &PersistError{Op: "encode", Backend: s.backend.Name(), Err: err}
	}
	if err := s.backend.Write(ctx, s.key, data); err != nil {
		return &PersistError{Op: "write", Backend: s.backend.Name(), Err: err}
	}
	s.log.WithFields(log.Fields{"backend": s.backend.Name(), "key": s.key, "bytes": len(data)}).Debug("board snapshot saved")
	return nil
}
