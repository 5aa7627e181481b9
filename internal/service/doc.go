// Package service drives collection cycles for clientparser.
//
// # Publisher
//
// Publisher routes the batch collected in one cycle into a domain.Snapshot,
// one lease table per declared subnet bucket, and hands it to the snapshot
// store, which replaces every table inside a single transaction.
//
// # Scheduler
//
// Scheduler runs cycles: Collecting fans the registered adapters out and
// waits for all of them, Publishing writes the snapshot, Sleeping polls
// until the interval measured from the previous cycle start has elapsed.
// An interval of zero runs exactly one cycle. A cycle that has started is
// never cancelled; shutdown is observed between cycles.
//
// # Event System
//
// The scheduler publishes cycle events on an EventBus. Subscribers that fall
// behind miss events rather than stall the cycle.
// CycleTracker is the subscriber the binary runs: it counts completed and
// aborted cycles and warns how stale the published snapshot is after each
// abort.
package service
