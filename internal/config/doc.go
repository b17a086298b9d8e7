// Package config loads transformation files.
//
// A transformation file names the intent, the datasets it reads and writes,
// where it runs, and the limits of its build. Files ending in .hcl are
// decoded as HCL; everything else as YAML with unknown fields rejected.
//
// Loading is a fixed pipeline: decode, apply AIDEN_* environment overrides,
// apply defaults, validate. Validation collects every problem rather than
// stopping at the first.
package config
