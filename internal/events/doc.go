// Package events decouples services that request background jobs from the
// component that builds and runs them. Services emit JobRequestEvents; the
// job package registers a handler that turns each event into a persisted,
// queued job.
package events
