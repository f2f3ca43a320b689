package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"github.com/use-agent/titleflix/models"
)

// Change is the before/after pair for one key.
type Change struct {
	OldValue any `json:"oldValue"`
	NewValue any `json:"newValue"`
}

// Changes maps each modified key to its Change.
type Changes map[string]Change

// Listener receives the keys modified by one write.
type Listener func(Changes)

// Store is a persisted key-value store shared by all components.
// Writes are last-write-wins per key; there are no multi-key transactions.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
	path   string
	closed bool

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// Open loads the store from path. A missing file yields an empty store and
// an empty path yields a store that is never written to disk.
func Open(path string) (*Store, error) {
	s := &Store{
		values:    make(map[string]any),
		path:      path,
		listeners: make(map[int]Listener),
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, models.NewError(models.ErrCodeStorage, "read store file", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, models.NewError(models.ErrCodeStorage, "decode store file", err)
	}
	return s, nil
}

// Get returns the values for keys. Missing keys are absent from the result.
// With no keys, every entry is returned.
func (s *Store) Get(keys ...string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, models.ErrContextInvalidated
	}

	out := make(map[string]any, len(keys))
	if len(keys) == 0 {
		for k, v := range s.values {
			out[k] = v
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Set writes values and notifies listeners of the keys whose value changed.
func (s *Store) Set(values map[string]any) error {
	normalized := make(map[string]any, len(values))
	for k, v := range values {
		nv, err := normalize(v)
		if err != nil {
			return models.NewError(models.ErrCodeStorage, fmt.Sprintf("encode value for %q", k), err)
		}
		normalized[k] = nv
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.ErrContextInvalidated
	}
	changes := make(Changes)
	for k, nv := range normalized {
		old, existed := s.values[k]
		if existed && reflect.DeepEqual(old, nv) {
			continue
		}
		changes[k] = Change{OldValue: old, NewValue: nv}
		s.values[k] = nv
	}
	var err error
	if len(changes) > 0 {
		err = s.persistLocked()
	}
	s.mu.Unlock()

	s.notify(changes)
	return err
}

// Remove deletes keys and notifies listeners.
func (s *Store) Remove(keys ...string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.ErrContextInvalidated
	}
	changes := make(Changes)
	for _, k := range keys {
		if old, ok := s.values[k]; ok {
			changes[k] = Change{OldValue: old}
			delete(s.values, k)
		}
	}
	var err error
	if len(changes) > 0 {
		err = s.persistLocked()
	}
	s.mu.Unlock()

	s.notify(changes)
	return err
}

// OnChanged registers fn for every write that modifies at least one key.
// The returned func unregisters it.
func (s *Store) OnChanged(fn Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// Close tears the store down. Every later call fails with
// models.ErrContextInvalidated.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.lmu.Lock()
	s.listeners = make(map[int]Listener)
	s.lmu.Unlock()
	return nil
}

func (s *Store) notify(changes Changes) {
	if len(changes) == 0 {
		return
	}

	s.lmu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(changes)
	}
}

// persistLocked writes the store atomically via a temp file and rename.
// Callers must hold s.mu.
func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return models.NewError(models.ErrCodeStorage, "create store dir", err)
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return models.NewError(models.ErrCodeStorage, "marshal store", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return models.NewError(models.ErrCodeStorage, "write store file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return models.NewError(models.ErrCodeStorage, "replace store file", err)
	}
	return nil
}

// normalize round-trips v through JSON so in-memory values have the same
// shape as values loaded from disk (string, bool, float64, nil, ...).
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
