// Package engine binds requests to adaptor instances.
//
// An Engine owns a sealed registry and a resolver. Bind resolves the request
// before it returns, so resolution errors are always immediate. Construction
// then happens either on the caller's goroutine (taskmode.NoTask) or inside
// a task launched according to the requested mode. Asynchronous
// constructions share a bounded semaphore.
package engine
