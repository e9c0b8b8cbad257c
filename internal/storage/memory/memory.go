package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/storage"
)

// Store keeps collections in process memory. Documents are copied on the
// way in and out so callers never share backing arrays.
type Store struct {
	mu   sync.Mutex
	docs map[string][]byte
	// failWrites makes Put fail; tests use it to exercise storage errors.
	failWrites error
}

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// NewFromFiles seeds collections from <key>.json files under base. Missing
// or malformed files are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, key := range []string{storage.KeyTransactions, storage.KeyGoals} {
		b, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil || !json.Valid(b) {
			continue
		}
		s.docs[key] = b
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), doc...), true, nil
}

func (s *Store) Put(_ context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites != nil {
		return s.failWrites
	}
	s.docs[key] = append([]byte(nil), doc...)
	return nil
}

// FailWrites makes every later Put return err; nil restores writes.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

var _ storage.Store = (*Store)(nil)
