// Package domain defines the core domain types and interfaces.
//
// Model types, shared value types, and cross-cutting interfaces live here.
// No implementation code - just contracts. Keeping the interfaces on the
// consumer side prevents circular imports between the services and the
// store implementations.
package domain
