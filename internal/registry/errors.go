package registry

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrDuplicateKey is matched by DuplicateKeyError.
	ErrDuplicateKey = errors.New("duplicate registry key")

	// ErrNotFound is matched by NotFoundError.
	ErrNotFound = errors.New("registry key not found")

	// ErrTypeMismatch is matched by TypeMismatchError.
	ErrTypeMismatch = errors.New("registry value has unexpected type")
)

// DuplicateKeyError is returned when registering a (category, name) pair that
// is already present. The existing entry is left untouched.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateKey, e.Key)
}

// Is reports whether target is ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// NotFoundError is returned when a lookup names a key that is not registered.
// For bulk lookups it names the first missing key.
type NotFoundError struct {
	Key Key
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.Key)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TypeMismatchError is returned by the typed accessors when the stored value
// cannot be asserted to the requested type.
type TypeMismatchError struct {
	Key  Key
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s holds %s, want %s", ErrTypeMismatch, e.Key, e.Got, e.Want)
}

// Is reports whether target is ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// IsNotFound returns true if err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDuplicateKey returns true if err is (or wraps) a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var dk *DuplicateKeyError
	return errors.As(err, &dk)
}
