// Package registry provides the typed object store used to hand datasets,
// providers and configuration across agent tool boundaries.
//
// Entries are keyed by an explicit (Category, name) pair. The category is
// supplied by the caller rather than inferred from the value's dynamic type,
// so two unrelated objects may share a name as long as their categories
// differ.
//
// A Registry is an ordinary value: construct one per run with New and pass it
// to the components that need it. Default returns a process-wide instance for
// single-run callers such as the CLI; library code never reaches for it
// implicitly.
//
// Thread-safety model:
//   - Register/Get (and their bulk forms) are atomic with respect to each other
//   - Clear is a full barrier; callers sequence it at run boundaries
package registry
