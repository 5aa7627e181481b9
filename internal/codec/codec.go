// Package codec converts raw collector output into canonical inventory
// records.
//
// LeaseParser reads the text netsh prints for "show clients 1"; DNSParser
// reads the JSON produced by Get-DnsServerResourceRecord | ConvertTo-Json.
// Neither parser fails on an individual malformed line or row: such input
// is dropped (domain.ErrParseSkip) and the rest is kept in source order.
//
// JSONCodec and YAMLCodec write a published snapshot to a file.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"clientparser/internal/domain"
)

// splitLines splits raw command output into lines without line endings
func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

// SnapshotCodec writes and reads whole snapshots
type SnapshotCodec interface {
	Format() string
	Export(snap *domain.Snapshot, w io.Writer) error
	Parse(r io.Reader) (*domain.Snapshot, error)
}

// CodecForPath picks a snapshot codec from a file extension
func CodecForPath(path string) (SnapshotCodec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONCodec(), nil
	case ".yaml", ".yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("no snapshot format for %q (use .json, .yaml or .yml)", path)
	}
}
