// Package testutil provides test doubles shared by the engine, facade and
// application tests: a fake adaptor that counts and can block its
// constructions, a recording job service, and a thread-safe log buffer.
package testutil
