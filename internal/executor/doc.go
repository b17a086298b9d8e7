// Package executor runs candidate code artifacts in isolated child processes
// under a hard wall-clock budget.
//
// An execution ends in exactly one of three conditions: no error, raised, or
// timeout. Candidate failures are data (Result.Err); only failures of the
// harness itself are returned as errors. Output is captured incrementally, so
// whatever the candidate printed before failing or being killed is kept.
//
// On unix the child runs in its own process group and the whole group is
// killed on deadline, taking any grandchildren with it.
package executor
