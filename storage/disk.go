package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// record is the file format of a disk value.
type record struct {
	Path      string          `json:"path"`
	IsLocked  bool            `json:"is_locked"`
	Metadata  map[string]any  `json:"metadata"`
	ValueType string          `json:"value_type"`
	Value     json.RawMessage `json:"value"`
}

// Disk is the persistent backend for "/" paths.
//
// Path "/a/b/c" is stored in the file <root>/a/b/c.json. Values are cached in
// memory after their first read and every write goes synchronously to disk.
type Disk struct {
	root  string
	codec Codec
	log   zerolog.Logger
	keys  keyedMutex

	mu    sync.RWMutex
	cache map[string]*Value
}

// NewDisk returns a disk backend rooted at dir. The directory is created on
// the first write.
func NewDisk(dir string, codec Codec, log zerolog.Logger) *Disk {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Disk{
		root:  dir,
		codec: codec,
		log:   log.With().Str("component", "storage").Logger(),
		cache: make(map[string]*Value),
	}
}

// Root returns the directory holding the files.
func (d *Disk) Root() string { return d.root }

func (d *Disk) file(path string) string {
	return filepath.Join(d.root, filepath.FromSlash(strings.TrimPrefix(path, "/"))) + ".json"
}

// load returns the value at path from the cache or the disk. It must be
// called with the path key locked.
func (d *Disk) load(path string) (*Value, bool, error) {
	d.mu.RLock()
	v, ok := d.cache[path]
	d.mu.RUnlock()
	if ok {
		return v, true, nil
	}

	content, err := os.ReadFile(d.file(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load error: %w", err)
	}
	var r record
	if err := json.Unmarshal(content, &r); err != nil {
		return nil, false, fmt.Errorf("load error: %s: %w", d.file(path), err)
	}
	data, err := d.codec.Decode(r.ValueType, r.Value)
	if err != nil {
		return nil, false, fmt.Errorf("load error: %s: %w", d.file(path), err)
	}
	v = &Value{Path: path, Data: data, Locked: r.IsLocked, Metadata: r.Metadata}
	d.mu.Lock()
	d.cache[path] = v
	d.mu.Unlock()
	d.log.Debug().Str("path", path).Msg("loaded")
	return v, true, nil
}

// persist writes v to disk then to the cache. It must be called with the
// path key locked.
func (d *Disk) persist(v *Value) error {
	typ, raw, err := d.codec.Encode(v.Data)
	if err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	content, err := json.MarshalIndent(record{
		Path:      v.Path,
		IsLocked:  v.Locked,
		Metadata:  v.Metadata,
		ValueType: typ,
		Value:     raw,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	if err := writeFile(d.file(v.Path), content); err != nil {
		return fmt.Errorf("persist error: %w", err)
	}
	d.mu.Lock()
	d.cache[v.Path] = v
	d.mu.Unlock()
	d.log.Debug().Str("path", v.Path).Bool("locked", v.Locked).Msg("persisted")
	return nil
}

// writeFile replaces file with content, through a synced temporary file.
func writeFile(file string, content []byte) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), file)
}

func (d *Disk) Get(path string) (Value, bool, error) {
	if err := ValidatePath(path); err != nil {
		return Value{}, false, err
	}
	unlock := d.keys.Lock(path)
	defer unlock()
	v, ok, err := d.load(path)
	if err != nil || !ok {
		return Value{}, false, err
	}
	return v.clone(), true, nil
}

func (d *Disk) Set(path string, data any, metadata map[string]any) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	unlock := d.keys.Lock(path)
	defer unlock()
	old, ok, err := d.load(path)
	if err != nil {
		return err
	}
	if !ok {
		old = &Value{Path: path}
	}
	if old.Locked {
		return fmt.Errorf("cannot set %s: %w", path, ErrLocked)
	}
	return d.persist(&Value{Path: path, Data: data, Metadata: mergeMetadata(old.Metadata, metadata)})
}

func (d *Disk) Delete(path string) (bool, error) {
	if err := ValidatePath(path); err != nil {
		return false, err
	}
	unlock := d.keys.Lock(path)
	defer unlock()
	v, ok, err := d.load(path)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if v.Locked {
		return false, fmt.Errorf("cannot delete %s: %w", path, ErrLocked)
	}
	d.mu.Lock()
	delete(d.cache, path)
	d.mu.Unlock()

	err = os.Remove(d.file(path))
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete error: %w", err)
	}
	d.log.Debug().Str("path", path).Msg("deleted")
	return true, nil
}

func (d *Disk) Lock(path string) error { return d.setLocked(path, true) }

func (d *Disk) Unlock(path string) error { return d.setLocked(path, false) }

func (d *Disk) setLocked(path string, locked bool) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	unlock := d.keys.Lock(path)
	defer unlock()
	old, ok, err := d.load(path)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	v := old.clone()
	v.Locked = locked
	return d.persist(&v)
}

// List walks the root directory for value files.
func (d *Disk) List(prefix string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(d.root, func(file string, e fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && file == d.root {
				return filepath.SkipDir
			}
			return err
		}
		if e.IsDir() || filepath.Ext(file) != ".json" || strings.HasPrefix(e.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(d.root, file)
		if err != nil {
			return err
		}
		path := "/" + filepath.ToSlash(strings.TrimSuffix(rel, ".json"))
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list error: %w", err)
	}
	slices.Sort(paths)
	return paths, nil
}
