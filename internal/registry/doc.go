// Package registry stores the adaptors the engine can dispatch to.
//
// Adaptors are indexed by (kind, scheme) in registration order, so the first
// adaptor registered for a pair is the preferred one. Registration normally
// happens once at startup, after which the registry is sealed. Lookups read
// an immutable snapshot and never take a lock.
package registry
