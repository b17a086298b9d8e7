package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Category is the explicit type tag forming the first half of a registry key.
// Packages that store values declare their own Category constant.
type Category string

// Key identifies one registry entry.
type Key struct {
	Category Category
	Name     string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Category, k.Name)
}

// Registry is a concurrency-safe store mapping (Category, name) to a value.
// Values are held by reference; the registry never copies or closes them.
type Registry struct {
	mu      sync.RWMutex
	entries map[Category]map[string]any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[Category]map[string]any)}
}

var defaultRegistry = New()

// Default returns the process-wide registry.
// Prefer passing an explicit *Registry; Default exists for single-run callers.
func Default() *Registry {
	return defaultRegistry
}

// Register stores value under (category, name).
// Returns DuplicateKeyError if the key is already present.
func (r *Registry) Register(category Category, name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[category][name]; exists {
		return &DuplicateKeyError{Key: Key{Category: category, Name: name}}
	}
	r.bucket(category)[name] = value
	return nil
}

// RegisterMultiple stores every entry of values under category.
//
// All-or-nothing: if any name is already registered, DuplicateKeyError names
// the first collision (in sorted name order) and nothing is inserted.
func (r *Registry) RegisterMultiple(category Category, values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.entries[category]
	for _, name := range names {
		if _, exists := existing[name]; exists {
			return &DuplicateKeyError{Key: Key{Category: category, Name: name}}
		}
	}

	bucket := r.bucket(category)
	for _, name := range names {
		bucket[name] = values[name]
	}
	return nil
}

// Get returns the value stored under (category, name).
// Returns NotFoundError if absent.
func (r *Registry) Get(category Category, name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.entries[category][name]
	if !ok {
		return nil, &NotFoundError{Key: Key{Category: category, Name: name}}
	}
	return value, nil
}

// GetMultiple returns the values for names under category.
//
// Fails with NotFoundError naming the first missing key in names order; on
// failure no partial map is returned.
func (r *Registry) GetMultiple(category Category, names []string) (map[string]any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.entries[category]
	out := make(map[string]any, len(names))
	for _, name := range names {
		value, ok := bucket[name]
		if !ok {
			return nil, &NotFoundError{Key: Key{Category: category, Name: name}}
		}
		out[name] = value
	}
	return out, nil
}

// GetAll returns every value registered under category.
// The returned map is a fresh copy; mutating it does not affect the registry.
func (r *Registry) GetAll(category Category) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.entries[category]
	out := make(map[string]any, len(bucket))
	for name, value := range bucket {
		out[name] = value
	}
	return out
}

// List returns every registered key, sorted by category then name.
func (r *Registry) List() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0)
	for category, bucket := range r.entries {
		for name := range bucket {
			keys = append(keys, Key{Category: category, Name: name})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Category != keys[j].Category {
			return keys[i].Category < keys[j].Category
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, bucket := range r.entries {
		n += len(bucket)
	}
	return n
}

// Clear removes all entries.
// Callers must ensure no Register/Get is in flight.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[Category]map[string]any)
}

// bucket returns the per-category map, creating it. Caller holds the write lock.
func (r *Registry) bucket(category Category) map[string]any {
	b, ok := r.entries[category]
	if !ok {
		b = make(map[string]any)
		r.entries[category] = b
	}
	return b
}
