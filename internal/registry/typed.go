package registry

import "fmt"

// GetAs returns the value under (category, name) asserted to T.
// Returns NotFoundError if absent and TypeMismatchError if the value is not a T.
func GetAs[T any](r *Registry, category Category, name string) (T, error) {
	var zero T
	value, err := r.Get(category, name)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, mismatch[T](Key{Category: category, Name: name}, value)
	}
	return typed, nil
}

// GetMultipleAs is the typed form of GetMultiple.
func GetMultipleAs[T any](r *Registry, category Category, names []string) (map[string]T, error) {
	values, err := r.GetMultiple(category, names)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(values))
	for _, name := range names {
		typed, ok := values[name].(T)
		if !ok {
			return nil, mismatch[T](Key{Category: category, Name: name}, values[name])
		}
		out[name] = typed
	}
	return out, nil
}

// GetAllAs returns every value under category that is a T.
// Values of other types are skipped.
func GetAllAs[T any](r *Registry, category Category) map[string]T {
	all := r.GetAll(category)
	out := make(map[string]T, len(all))
	for name, value := range all {
		if typed, ok := value.(T); ok {
			out[name] = typed
		}
	}
	return out
}

func mismatch[T any](key Key, got any) *TypeMismatchError {
	var want T
	return &TypeMismatchError{
		Key:  key,
		Want: fmt.Sprintf("%T", &want)[1:],
		Got:  fmt.Sprintf("%T", got),
	}
}
