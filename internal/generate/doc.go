// Package generate provides build.Generator implementations.
//
// Scripted replays fixed candidates and backs tests, the scenario harness and
// the CLI's --candidates mode. Command delegates to an external program, the
// boundary behind which a language model lives: it receives the generation
// request as JSON on stdin and answers with code on stdout.
package generate
