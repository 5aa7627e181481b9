package domain

import (
	"slices"
	"time"
)

// Batch holds the records one adapter gathered in a cycle
type Batch struct {
	// Subnets lists the lease subnets this batch is authoritative for,
	// including ones that produced no leases
	Subnets []string      `json:"subnets,omitempty"`
	Leases  []LeaseRecord `json:"leases"`
	DNS     []DNSRecord   `json:"dns"`
}

// NewBatch creates an empty batch
func NewBatch() *Batch {
	return &Batch{
		Leases: make([]LeaseRecord, 0),
		DNS:    make([]DNSRecord, 0),
	}
}

// DeclareSubnet records that the batch covers subnet
func (b *Batch) DeclareSubnet(subnet string) {
	if subnet == "" || slices.Contains(b.Subnets, subnet) {
		return
	}
	b.Subnets = append(b.Subnets, subnet)
}

// AddLeases appends leases in order
func (b *Batch) AddLeases(leases ...LeaseRecord) {
	b.Leases = append(b.Leases, leases...)
}

// AddDNS appends DNS records in order
func (b *Batch) AddDNS(records ...DNSRecord) {
	b.DNS = append(b.DNS, records...)
}

// Merge appends other's contents after b's, preserving both orders
func (b *Batch) Merge(other *Batch) {
	if other == nil {
		return
	}
	for _, s := range other.Subnets {
		b.DeclareSubnet(s)
	}
	b.AddLeases(other.Leases...)
	b.AddDNS(other.DNS...)
}

// Empty reports whether the batch carries no records
func (b *Batch) Empty() bool {
	return b == nil || (len(b.Leases) == 0 && len(b.DNS) == 0)
}

// Snapshot is the routed output of one collection cycle. Lease tables are
// keyed by the storage table identifier.
type Snapshot struct {
	ID      string
	TakenAt time.Time
	DNS     []DNSRecord

	tables map[string][]LeaseRecord
}

// NewSnapshot creates an empty snapshot for a cycle
func NewSnapshot(id string, takenAt time.Time) *Snapshot {
	return &Snapshot{
		ID:      id,
		TakenAt: takenAt,
		DNS:     make([]DNSRecord, 0),
		tables:  make(map[string][]LeaseRecord),
	}
}

// DeclareTable ensures table is published even if it stays empty
func (s *Snapshot) DeclareTable(table string) {
	if _, ok := s.tables[table]; !ok {
		s.tables[table] = make([]LeaseRecord, 0)
	}
}

// AddLease appends a lease to table
func (s *Snapshot) AddLease(table string, lease LeaseRecord) {
	s.tables[table] = append(s.tables[table], lease)
}

// Tables returns the lease table identifiers in sorted order
func (s *Snapshot) Tables() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Leases returns the leases routed to table
func (s *Snapshot) Leases(table string) []LeaseRecord {
	return s.tables[table]
}

// LeaseCount returns the number of leases across all tables
func (s *Snapshot) LeaseCount() int {
	n := 0
	for _, leases := range s.tables {
		n += len(leases)
	}
	return n
}
