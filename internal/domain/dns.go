package domain

import (
	"fmt"
	"strings"
	"time"
)

// RecordType is a DNS resource record type
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeAAAA  RecordType = "AAAA"
	RecordTypeCNAME RecordType = "CNAME"
	RecordTypeMX    RecordType = "MX"
	RecordTypeNS    RecordType = "NS"
	RecordTypePTR   RecordType = "PTR"
	RecordTypeSRV   RecordType = "SRV"
	RecordTypeTXT   RecordType = "TXT"
)

// ParseRecordType normalizes a reported type name ("a", " Ptr ") to its
// canonical upper-case form
func ParseRecordType(s string) RecordType {
	return RecordType(strings.ToUpper(strings.TrimSpace(s)))
}

// MaxRecordTypeLength matches the record_type column width
const MaxRecordTypeLength = 10

// DNSRecord represents one DNS resource record as stored.
// For PTR records collected from a reverse zone, Hostname holds the PTR
// target and Data holds the reconstructed address.
type DNSRecord struct {
	Name       string     `json:"name"`
	Hostname   string     `json:"hostname"`
	RecordType RecordType `json:"record_type"`
	Data       string     `json:"data"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Validate checks the fields storage cannot accept
func (r DNSRecord) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("dns record has no name")
	}
	if r.RecordType == "" || len(r.RecordType) > MaxRecordTypeLength {
		return fmt.Errorf("dns record %s has invalid type %q", r.Name, r.RecordType)
	}
	for field, v := range map[string]string{"name": r.Name, "hostname": r.Hostname, "data": r.Data} {
		if len(v) > MaxFieldLength {
			return fmt.Errorf("dns record %s %s %s exceeds %d characters", r.Name, r.RecordType, field, MaxFieldLength)
		}
	}
	return nil
}
