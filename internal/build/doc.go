// Package build drives the generate, execute, evaluate loop that turns a
// transformation intent into accepted code.
//
// A Transformation moves through an explicit state machine:
//
//	draft -> building -> ready
//	                  -> error
//	ready, error -> building   (Machine.Rebuild only)
//
// Only Machine.Build and Machine.Rebuild perform these transitions. ready and
// error are terminal and a transformation never returns to draft.
//
// Each iteration asks a Generator for a candidate, runs it through an
// executor.Executor under the remaining time budget, and accepts it iff the
// run raised nothing and every configured Check passes. The earliest accepted
// iteration wins. Rejections keep their record and feed a diagnostic back into
// the plan for the next attempt.
//
// Key invariants:
//   - Iterations within one build are strictly sequential
//   - Stored iteration indices are 0-based; human-facing text is 1-based
//   - Harness failures are fatal and never retried
//   - Observer errors and panics are logged and never abort a build
package build
