package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in a single JSON document on disk. The file is
// re-read on every access so that writes made by another process are observed,
// and rewritten whole on every Set/Remove.
type FileStore struct {
	mu       sync.Mutex
	dataFile string
}

func NewFileStore(dataFile string) (*FileStore, error) {
	if dataFile == "" {
		dataFile = "salgados.json"
	}
	if err := os.MkdirAll(filepath.Dir(dataFile), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	st := &FileStore{dataFile: dataFile}
	if _, err := os.Stat(dataFile); errors.Is(err, os.ErrNotExist) {
		if err := st.saveToFile(map[string]json.RawMessage{}); err != nil {
			return nil, err
		}
	}
	if _, err := st.loadFromFile(); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *FileStore) Path() string { return st.dataFile }

func (st *FileStore) loadFromFile() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(st.dataFile)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", st.dataFile, err)
	}
	values := map[string]json.RawMessage{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", st.dataFile, err)
	}
	return values, nil
}

// saveToFile writes through a temp file so a crash never leaves a torn document.
func (st *FileStore) saveToFile(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := st.dataFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, st.dataFile); err != nil {
		return fmt.Errorf("replace %s: %w", st.dataFile, err)
	}
	return nil
}

func (st *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	values, err := st.loadFromFile()
	if err != nil {
		return nil, false, err
	}
	v, ok := values[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

func (st *FileStore) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("set %s: value is not valid JSON", key)
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	values, err := st.loadFromFile()
	if err != nil {
		return err
	}
	values[key] = json.RawMessage(cloneBytes(value))
	return st.saveToFile(values)
}

func (st *FileStore) Remove(_ context.Context, key string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	values, err := st.loadFromFile()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return st.saveToFile(values)
}
