// Package callback provides build.Observer implementations: a chain-of-thought
// narrator that turns lifecycle events into human-readable steps, and a
// structured logging observer.
package callback
