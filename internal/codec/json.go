package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"clientparser/internal/domain"
)

// JSONCodec handles snapshot export as JSON
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

type jsonSnapshot struct {
	ID      string                          `json:"id"`
	TakenAt time.Time                       `json:"taken_at"`
	Tables  map[string][]domain.LeaseRecord `json:"tables"`
	DNS     []domain.DNSRecord              `json:"dns_records"`
}

// Parse reads a snapshot written by Export
func (c *JSONCodec) Parse(r io.Reader) (*domain.Snapshot, error) {
	var js jsonSnapshot
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&js); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	snap := domain.NewSnapshot(js.ID, js.TakenAt)
	for table, leases := range js.Tables {
		snap.DeclareTable(table)
		for _, lease := range leases {
			snap.AddLease(table, lease)
		}
	}
	snap.DNS = append(snap.DNS, js.DNS...)
	return snap, nil
}

// Export writes snap as indented JSON
func (c *JSONCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	js := jsonSnapshot{
		ID:      snap.ID,
		TakenAt: snap.TakenAt,
		Tables:  make(map[string][]domain.LeaseRecord, len(snap.Tables())),
		DNS:     snap.DNS,
	}
	for _, table := range snap.Tables() {
		js.Tables[table] = snap.Leases(table)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(js); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
