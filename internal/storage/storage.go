package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Store persists a whole document of type T with read-modify-write semantics.
// Read returns ok=false when no document has been stored yet.
type Store[T any] interface {
	Read() (doc T, ok bool, err error)
	Write(doc T) error
}

// JSONFile stores a single JSON document on disk.
type JSONFile[T any] struct {
	path string
}

func NewJSONFile[T any](path string) *JSONFile[T] {
	return &JSONFile[T]{path: path}
}

func (f *JSONFile[T]) Read() (T, bool, error) {
	var doc T
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, false, nil
		}
		return doc, false, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, false, err
	}
	return doc, true, nil
}

// Write marshals the document and replaces the file via a temp file and
// rename, so a concurrent reader never observes a half-written document.
func (f *JSONFile[T]) Write(doc T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Memory keeps the document in process memory. Used in tests and as an
// ephemeral store when no path is configured.
type Memory[T any] struct {
	mu  sync.Mutex
	doc T
	set bool
}

func NewMemory[T any]() *Memory[T] { return &Memory[T]{} }

func (m *Memory[T]) Read() (T, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc, m.set, nil
}

func (m *Memory[T]) Write(doc T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
	m.set = true
	return nil
}
