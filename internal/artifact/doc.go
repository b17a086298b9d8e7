// Package artifact provides content identity and text utilities for candidate
// code artifacts.
//
// An artifact ID is a domain-separated SHA-256 over the NFC-normalized code, so
// the same code produced by two iterations (or two builds) shares an ID and is
// stored once in the build journal.
package artifact
