package storage

import (
	"slices"

	"github.com/rs/zerolog"
)

// Router dispatches "$" paths to an ephemeral backend and "/" paths to a
// persistent one.
type Router struct {
	memory Storage
	disk   Storage
}

// New returns a Router with a fresh memory backend and a disk backend rooted
// at dir.
func New(dir string, codec Codec, log zerolog.Logger) *Router {
	return NewRouter(NewMemory(), NewDisk(dir, codec, log))
}

// NewRouter returns a Router over the given backends.
func NewRouter(memory, disk Storage) *Router {
	return &Router{memory: memory, disk: disk}
}

func (r *Router) route(path string) (Storage, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	if IsMemory(path) {
		return r.memory, nil
	}
	return r.disk, nil
}

func (r *Router) Get(path string) (Value, bool, error) {
	s, err := r.route(path)
	if err != nil {
		return Value{}, false, err
	}
	return s.Get(path)
}

func (r *Router) Set(path string, data any, metadata map[string]any) error {
	s, err := r.route(path)
	if err != nil {
		return err
	}
	return s.Set(path, data, metadata)
}

func (r *Router) Delete(path string) (bool, error) {
	s, err := r.route(path)
	if err != nil {
		return false, err
	}
	return s.Delete(path)
}

func (r *Router) Lock(path string) error {
	s, err := r.route(path)
	if err != nil {
		return err
	}
	return s.Lock(path)
}

func (r *Router) Unlock(path string) error {
	s, err := r.route(path)
	if err != nil {
		return err
	}
	return s.Unlock(path)
}

// List lists both backends for an empty prefix, and the routed one otherwise.
func (r *Router) List(prefix string) ([]string, error) {
	var backends []Storage
	switch {
	case prefix == "":
		backends = []Storage{r.memory, r.disk}
	case IsMemory(prefix):
		backends = []Storage{r.memory}
	case IsDisk(prefix):
		backends = []Storage{r.disk}
	default:
		return nil, nil
	}
	var paths []string
	for _, s := range backends {
		p, err := s.List(prefix)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p...)
	}
	slices.Sort(paths)
	return paths, nil
}
