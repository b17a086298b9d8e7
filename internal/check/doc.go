// Package check provides acceptance checks for the build loop.
//
// Checks run after a candidate executed without error. They inspect the
// output dataset the candidate was asked to produce: OutputExists confirms
// the file is there, and Schema validates its rows against the dataset's
// CUE schema.
package check
