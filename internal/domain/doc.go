// Package domain defines the core inventory types for clientparser.
//
// This package contains the canonical records produced by the collectors and
// the containers that carry them through one collection cycle.
//
// # Core Types
//
// LeaseRecord is one active DHCP binding of an address to a client MAC,
// tagged with the subnet of the scope it was collected from.
//
// DNSRecord is one resource record from a forward zone, or a PTR record from
// a reverse zone re-expressed so that the hostname column always holds the
// FQDN side of the binding.
//
// Batch is what a single adapter returns: the records it gathered plus the
// lease subnets it is authoritative for.
//
// Snapshot is the full, routed result of one cycle. It replaces the previous
// snapshot in storage as a whole.
//
// # Errors
//
// The error taxonomy (SourceInvocationError, StorageWriteError,
// CycleAbortError and the ErrParseSkip sentinel) lives in errors.go.
//
// # Design Principles
//
// - No database or external dependencies
// - Records are plain values; routing and persistence happen elsewhere
package domain
