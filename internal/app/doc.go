// Package app wires the engine, the bundled adaptors and the job runner into
// one application, decoupled from any entrypoint like a CLI.
package app
