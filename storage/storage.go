// Package storage implements the path routed variable store.
//
// Paths starting with "$" live in memory for the lifetime of the process.
// Paths starting with "/" are persisted on disk, one JSON file per path.
// Any path can be locked, a locked path rejects writes with ErrLocked.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strings"
)

var (
	// ErrLocked is returned when setting a locked path.
	ErrLocked = errors.New("variable is locked")
	// ErrNotFound is returned when a path holds no value.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPath is returned for paths that are neither "$name" nor "/a/b".
	ErrInvalidPath = errors.New("invalid path")
)

// Value is a stored value with its lock state and metadata.
type Value struct {
	Path     string
	Data     any
	Locked   bool
	Metadata map[string]any
}

// clone returns a copy of v that callers can modify.
func (v *Value) clone() Value {
	c := *v
	c.Metadata = maps.Clone(v.Metadata)
	return c
}

// Storage is a key value store addressed by paths.
//
// Implementations are safe for concurrent use: operations on the same path
// are serialized, operations on distinct paths do not wait for each other.
type Storage interface {
	// Get returns the value at path, false if there is none.
	Get(path string) (Value, bool, error)
	// Set stores data at path, merging metadata into the existing one.
	// It returns ErrLocked if the path is locked.
	Set(path string, data any, metadata map[string]any) error
	// Delete removes path and reports whether it existed. It returns ErrLocked
	// if the path is locked.
	Delete(path string) (bool, error)
	// Lock marks path read only. It returns ErrNotFound if path holds no value.
	Lock(path string) error
	// Unlock makes path writable again.
	Unlock(path string) error
	// List returns the sorted paths starting with prefix.
	List(prefix string) ([]string, error)
}

// Codec converts stored data to and from a self describing JSON form.
type Codec interface {
	Encode(data any) (typ string, raw json.RawMessage, err error)
	Decode(typ string, raw json.RawMessage) (any, error)
}

// JSONCodec stores any JSON encodable data. Decoded values are generic
// JSON values (map[string]any, []any, float64, ...).
type JSONCodec struct{}

func (JSONCodec) Encode(data any) (string, json.RawMessage, error) {
	raw, err := json.Marshal(data)
	return "json", raw, err
}

func (JSONCodec) Decode(_ string, raw json.RawMessage) (any, error) {
	var v any
	err := json.Unmarshal(raw, &v)
	return v, err
}

var (
	memoryPathRE = regexp.MustCompile(`^\$[A-Za-z0-9_!.\-]+$`)
	segmentRE    = regexp.MustCompile(`^[A-Za-z0-9_!\-][A-Za-z0-9_!.\-]*$`)
)

// IsMemory reports whether path routes to the memory backend.
func IsMemory(path string) bool { return strings.HasPrefix(path, "$") }

// IsDisk reports whether path routes to the disk backend.
func IsDisk(path string) bool { return strings.HasPrefix(path, "/") }

// ValidatePath checks that path is a valid "$name" or "/a/b/c" path.
func ValidatePath(path string) error {
	switch {
	case IsMemory(path):
		if !memoryPathRE.MatchString(path) {
			return fmt.Errorf("%w %q", ErrInvalidPath, path)
		}
	case IsDisk(path):
		for _, seg := range strings.Split(path[1:], "/") {
			if !segmentRE.MatchString(seg) {
				return fmt.Errorf("%w %q", ErrInvalidPath, path)
			}
		}
	default:
		return fmt.Errorf("%w %q: want $name or /path", ErrInvalidPath, path)
	}
	return nil
}

// mergeMetadata returns a copy of old updated with the keys of update.
func mergeMetadata(old, update map[string]any) map[string]any {
	if len(old) == 0 && len(update) == 0 {
		return nil
	}
	m := maps.Clone(old)
	if m == nil {
		m = make(map[string]any, len(update))
	}
	maps.Copy(m, update)
	return m
}
