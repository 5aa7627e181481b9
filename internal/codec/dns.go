package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"clientparser/internal/domain"
)

// ReverseZoneSuffix terminates every IPv4 reverse zone name
const ReverseZoneSuffix = ".in-addr.arpa"

// recordDataFields names the RecordData property that carries the payload
// for each supported type
var recordDataFields = map[domain.RecordType]string{
	domain.RecordTypeA:     "IPv4Address",
	domain.RecordTypeAAAA:  "IPv6Address",
	domain.RecordTypeCNAME: "HostNameAlias",
	domain.RecordTypeMX:    "MailExchange",
	domain.RecordTypeNS:    "NameServer",
	domain.RecordTypePTR:   "PtrDomainName",
	domain.RecordTypeSRV:   "DomainName",
	domain.RecordTypeTXT:   "DescriptiveText",
}

// dnsRow is one element of the zone listing. encoding/json matches keys
// case-insensitively, so PowerShell's "HostName" lands in Hostname.
type dnsRow struct {
	Name     string          `json:"Name"`
	Hostname string          `json:"Hostname"`
	Type     string          `json:"Type"`
	Data     json.RawMessage `json:"Data"`
}

// DNSParser parses zone listings
type DNSParser struct{}

// NewDNSParser creates a DNS parser
func NewDNSParser() *DNSParser {
	return &DNSParser{}
}

// ParseForward maps a forward zone listing directly to records. Types the
// collector does not normalize keep their row with empty data. Rows that
// cannot be stored, such as TXT data wider than the data column, are
// skipped.
func (p *DNSParser) ParseForward(zone, raw string, at time.Time) ([]domain.DNSRecord, error) {
	rows, err := decodeRows(raw)
	if err != nil {
		return nil, fmt.Errorf("decode zone %s: %w", zone, err)
	}

	records := make([]domain.DNSRecord, 0, len(rows))
	for _, row := range rows {
		recordType := domain.ParseRecordType(row.Type)
		name := strings.TrimSpace(row.Name)
		if name == "" {
			name = strings.TrimSpace(zone)
		}

		rec := domain.DNSRecord{
			Name:       name,
			Hostname:   strings.TrimSpace(row.Hostname),
			RecordType: recordType,
			Data:       recordData(recordType, row.Data),
			Timestamp:  at,
		}
		if err := rec.Validate(); err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// ParseReverse maps the PTR listing of a reverse zone to records whose
// Hostname is the PTR target (minus the forward zone, when it matches) and
// whose Data is the address rebuilt from the zone and the owner label.
func (p *DNSParser) ParseReverse(reverseZone, forwardZone, raw string, at time.Time) ([]domain.DNSRecord, error) {
	prefix, err := ReverseZonePrefix(reverseZone)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows(raw)
	if err != nil {
		return nil, fmt.Errorf("decode zone %s: %w", reverseZone, err)
	}

	records := make([]domain.DNSRecord, 0, len(rows))
	for _, row := range rows {
		recordType := domain.ParseRecordType(row.Type)
		if recordType != domain.RecordTypePTR {
			continue
		}

		owner := strings.TrimSpace(row.Hostname)
		if owner == "" {
			continue
		}

		name := strings.TrimSpace(row.Name)
		if name == "" {
			name = strings.TrimSpace(reverseZone)
		}

		target := recordData(recordType, row.Data)
		rec := domain.DNSRecord{
			Name:       name,
			Hostname:   StripZone(target, forwardZone),
			RecordType: recordType,
			Data:       prefix + "." + reverseLabels(owner),
			Timestamp:  at,
		}
		if err := rec.Validate(); err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReverseZonePrefix turns "1.168.192.in-addr.arpa" into "192.168.1"
func ReverseZonePrefix(zone string) (string, error) {
	z := strings.TrimSuffix(strings.TrimSpace(zone), ".")
	if !strings.HasSuffix(strings.ToLower(z), ReverseZoneSuffix) {
		return "", fmt.Errorf("%q is not a reverse zone", zone)
	}

	prefix := z[:len(z)-len(ReverseZoneSuffix)]
	if prefix == "" {
		return "", fmt.Errorf("reverse zone %q has no address prefix", zone)
	}
	return reverseLabels(prefix), nil
}

// StripZone removes a trailing ".<zone>." or ".<zone>" from fqdn
func StripZone(fqdn, zone string) string {
	zone = strings.Trim(strings.TrimSpace(zone), ".")
	if zone == "" {
		return fqdn
	}

	lower := strings.ToLower(fqdn)
	for _, suffix := range []string{"." + zone + ".", "." + zone} {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return fqdn[:len(fqdn)-len(suffix)]
		}
	}
	return fqdn
}

// reverseLabels reverses the order of dot-separated labels
func reverseLabels(s string) string {
	labels := strings.Split(s, ".")
	slices.Reverse(labels)
	return strings.Join(labels, ".")
}

// decodeRows accepts a JSON array, a single object (ConvertTo-Json emits
// one for a single-row result) or empty output
func decodeRows(raw string) ([]dnsRow, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var row dnsRow
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return nil, err
		}
		return []dnsRow{row}, nil
	}

	var rows []dnsRow
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// recordData normalizes the Data payload. It may already be a string, or a
// serialized RecordData object from which the per-type property is taken.
func recordData(recordType domain.RecordType, raw json.RawMessage) string {
	field, ok := recordDataFields[recordType]
	if !ok || len(raw) == 0 {
		return ""
	}
	return jsonText(raw, field)
}

func jsonText(raw json.RawMessage, field string) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		// numbers, booleans and arrays
		return strings.TrimSpace(string(raw))
	}

	for key, value := range obj {
		if strings.EqualFold(key, field) {
			return jsonText(value, "IPAddressToString")
		}
	}
	return ""
}
