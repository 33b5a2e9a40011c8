// Package store defines the persistence contracts of the task service.
// Services depend on these interfaces; internal/platform/postgres provides
// the implementations. Every store can be rebound to a transaction with
// WithTx so a mutation and its activity rows commit together.
package store
