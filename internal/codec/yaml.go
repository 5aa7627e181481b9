package codec

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"clientparser/internal/domain"
)

// YAMLCodec handles snapshot export as YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlSnapshot represents the YAML structure for a snapshot. Tables is a
// list so the file keeps the sorted table order.
type yamlSnapshot struct {
	ID      string      `yaml:"id"`
	TakenAt time.Time   `yaml:"taken_at"`
	Tables  []yamlTable `yaml:"tables"`
	DNS     []yamlDNS   `yaml:"dns_records"`
}

type yamlTable struct {
	Name   string      `yaml:"name"`
	Leases []yamlLease `yaml:"leases"`
}

type yamlLease struct {
	IP          string    `yaml:"ip"`
	MAC         string    `yaml:"mac"`
	LeaseStatus string    `yaml:"lease_status"`
	Hostname    string    `yaml:"hostname,omitempty"`
	Subnet      string    `yaml:"subnet"`
	Timestamp   time.Time `yaml:"timestamp"`
}

type yamlDNS struct {
	Name       string    `yaml:"name"`
	Hostname   string    `yaml:"hostname"`
	RecordType string    `yaml:"record_type"`
	Data       string    `yaml:"data"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// Parse reads a snapshot written by Export
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var ys yamlSnapshot
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&ys); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	snap := domain.NewSnapshot(ys.ID, ys.TakenAt)

	for _, yt := range ys.Tables {
		snap.DeclareTable(yt.Name)
		for _, yl := range yt.Leases {
			snap.AddLease(yt.Name, domain.LeaseRecord{
				IP:          yl.IP,
				MAC:         yl.MAC,
				LeaseStatus: domain.LeaseStatus(yl.LeaseStatus),
				Hostname:    yl.Hostname,
				Subnet:      yl.Subnet,
				Timestamp:   yl.Timestamp,
			})
		}
	}

	for _, yd := range ys.DNS {
		snap.DNS = append(snap.DNS, domain.DNSRecord{
			Name:       yd.Name,
			Hostname:   yd.Hostname,
			RecordType: domain.ParseRecordType(yd.RecordType),
			Data:       yd.Data,
			Timestamp:  yd.Timestamp,
		})
	}

	return snap, nil
}

// Export writes snap as YAML
func (c *YAMLCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	ys := yamlSnapshot{
		ID:      snap.ID,
		TakenAt: snap.TakenAt,
		Tables:  make([]yamlTable, 0, len(snap.Tables())),
		DNS:     make([]yamlDNS, 0, len(snap.DNS)),
	}

	for _, table := range snap.Tables() {
		yt := yamlTable{Name: table, Leases: make([]yamlLease, 0)}
		for _, lease := range snap.Leases(table) {
			yt.Leases = append(yt.Leases, yamlLease{
				IP:          lease.IP,
				MAC:         lease.MAC,
				LeaseStatus: string(lease.LeaseStatus),
				Hostname:    lease.Hostname,
				Subnet:      lease.Subnet,
				Timestamp:   lease.Timestamp,
			})
		}
		ys.Tables = append(ys.Tables, yt)
	}

	for _, rec := range snap.DNS {
		ys.DNS = append(ys.DNS, yamlDNS{
			Name:       rec.Name,
			Hostname:   rec.Hostname,
			RecordType: string(rec.RecordType),
			Data:       rec.Data,
			Timestamp:  rec.Timestamp,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&ys); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
