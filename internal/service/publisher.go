package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"go4.org/netipx"

	"clientparser/internal/codec"
	"clientparser/internal/domain"
	"clientparser/internal/repository"
)

// Publisher turns a collected batch into a snapshot and replaces the stored
// dataset with it
type Publisher struct {
	router *repository.TableRouter
	store  repository.SnapshotStore
	logger *slog.Logger

	exportPath  string
	exportCodec codec.SnapshotCodec
}

// NewPublisher creates a publisher writing to store
func NewPublisher(store repository.SnapshotStore, router *repository.TableRouter, logger *slog.Logger) *Publisher {
	if router == nil {
		router = repository.NewTableRouter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		router: router,
		store:  store,
		logger: logger,
	}
}

// Snapshot routes batch into a snapshot for cycleID. Every subnet the batch
// declares gets a table, so a scope that returned no leases still replaces
// its previous contents with an empty table.
func (p *Publisher) Snapshot(cycleID string, at time.Time, batch *domain.Batch) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot(cycleID, at)
	if batch == nil {
		return snap, nil
	}

	for _, subnet := range batch.Subnets {
		table, err := p.router.Table(subnet)
		if err != nil {
			return nil, err
		}
		snap.DeclareTable(table)
	}

	for _, lease := range batch.Leases {
		table, err := p.router.Table(lease.Subnet)
		if err != nil {
			return nil, fmt.Errorf("lease %s: %w", lease.IP, err)
		}
		snap.AddLease(table, lease)
	}

	snap.DNS = append(snap.DNS, batch.DNS...)
	return snap, nil
}

// Publish replaces the stored dataset with snap
func (p *Publisher) Publish(ctx context.Context, snap *domain.Snapshot) error {
	if err := p.store.ReplaceSnapshot(ctx, snap); err != nil {
		return err
	}

	for _, table := range snap.Tables() {
		leases := snap.Leases(table)
		p.logger.Info("table published",
			"cycle", snap.ID,
			"table", table,
			"leases", len(leases),
			"ranges", addressRanges(leases),
			"overlong_macs", overlongMACs(leases),
		)
	}
	p.logger.Info("snapshot published",
		"cycle", snap.ID,
		"tables", len(snap.Tables()),
		"leases", snap.LeaseCount(),
		"dns_records", len(snap.DNS),
	)

	if p.exportPath != "" {
		// export failures are logged only
		if err := p.export(snap); err != nil {
			p.logger.Warn("snapshot export failed", "path", p.exportPath, "error", err)
		}
	}
	return nil
}

// ExportTo makes every published snapshot also be written to path, in the
// format its extension names
func (p *Publisher) ExportTo(path string) error {
	c, err := codec.CodecForPath(path)
	if err != nil {
		return err
	}
	p.exportPath = path
	p.exportCodec = c
	return nil
}

// export replaces the export file via a temporary file in the same
// directory
func (p *Publisher) export(snap *domain.Snapshot) error {
	f, err := os.CreateTemp(filepath.Dir(p.exportPath), ".clientparser-export-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := p.exportCodec.Export(snap, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p.exportPath)
}

// addressRanges counts the contiguous address ranges the leases cover
func addressRanges(leases []domain.LeaseRecord) int {
	var b netipx.IPSetBuilder
	for _, lease := range leases {
		addr, err := netip.ParseAddr(lease.IP)
		if err != nil {
			continue
		}
		b.Add(addr)
	}
	set, err := b.IPSet()
	if err != nil {
		return 0
	}
	return len(set.Ranges())
}

// overlongMACs counts leases whose MAC normalized past six octets
func overlongMACs(leases []domain.LeaseRecord) int {
	n := 0
	for _, l := range leases {
		if l.IsOverlongMAC() {
			n++
		}
	}
	return n
}
