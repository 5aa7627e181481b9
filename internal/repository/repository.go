package repository

import (
	"context"

	"clientparser/internal/domain"
)

// DNSTable is the single table holding forward and reverse DNS records
const DNSTable = "dns_records"

// SnapshotStore persists whole snapshots
type SnapshotStore interface {
	// ReplaceSnapshot makes snap the authoritative dataset. Either every
	// table in snap is replaced or none is.
	ReplaceSnapshot(ctx context.Context, snap *domain.Snapshot) error

	// Close releases the connection pool
	Close() error
}

// SnapshotReader reads back the published dataset
type SnapshotReader interface {
	Leases(ctx context.Context, table string) ([]domain.LeaseRecord, error)
	DNSRecords(ctx context.Context) ([]domain.DNSRecord, error)
}
