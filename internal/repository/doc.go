// Package repository defines the storage abstractions for clientparser.
//
// # Table Routing
//
// Leases are stored in one table per subnet bucket. TableRouter derives the
// bucket from the subnet string: subnets beginning "10" go to
// private_<third octet>, everything else to public_<third octet>. The
// mapping is memoized for the life of the process.
//
// # Snapshot Store
//
// SnapshotStore replaces the full dataset produced by one collection cycle.
// The SQL implementation lives in the sqlstore subpackage and supports
// SQLite and PostgreSQL.
package repository
