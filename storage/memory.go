package storage

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Memory is the process lifetime backend for "$" paths.
type Memory struct {
	keys keyedMutex

	mu     sync.RWMutex
	values map[string]*Value
}

// NewMemory returns an empty memory backend.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]*Value)}
}

func (m *Memory) load(path string) (*Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[path]
	return v, ok
}

func (m *Memory) store(path string, v *Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[path] = v
}

func (m *Memory) Get(path string) (Value, bool, error) {
	if err := ValidatePath(path); err != nil {
		return Value{}, false, err
	}
	unlock := m.keys.Lock(path)
	defer unlock()
	v, ok := m.load(path)
	if !ok {
		return Value{}, false, nil
	}
	return v.clone(), true, nil
}

func (m *Memory) Set(path string, data any, metadata map[string]any) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	unlock := m.keys.Lock(path)
	defer unlock()
	old, ok := m.load(path)
	if !ok {
		old = &Value{Path: path}
	}
	if old.Locked {
		return fmt.Errorf("cannot set %s: %w", path, ErrLocked)
	}
	m.store(path, &Value{Path: path, Data: data, Metadata: mergeMetadata(old.Metadata, metadata)})
	return nil
}

func (m *Memory) Delete(path string) (bool, error) {
	if err := ValidatePath(path); err != nil {
		return false, err
	}
	unlock := m.keys.Lock(path)
	defer unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[path]
	if ok && v.Locked {
		return false, fmt.Errorf("cannot delete %s: %w", path, ErrLocked)
	}
	delete(m.values, path)
	return ok, nil
}

func (m *Memory) Lock(path string) error { return m.setLocked(path, true) }

func (m *Memory) Unlock(path string) error { return m.setLocked(path, false) }

func (m *Memory) setLocked(path string, locked bool) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	unlock := m.keys.Lock(path)
	defer unlock()
	old, ok := m.load(path)
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	v := old.clone()
	v.Locked = locked
	m.store(path, &v)
	return nil
}

func (m *Memory) List(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var paths []string
	for p := range m.values {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	slices.Sort(paths)
	return paths, nil
}
