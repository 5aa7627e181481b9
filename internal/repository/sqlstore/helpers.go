package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	"clientparser/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull stores empty strings as NULL
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// storedTime normalizes a timestamp before it is written. Both dialects
// store it without a zone, so everything is kept in UTC.
func storedTime(t time.Time) time.Time {
	return t.UTC()
}

// timeLayouts covers what the drivers hand back for a DATETIME column
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// scanTime converts a scanned timestamp value into time.Time
func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t.UTC(), nil
	case []byte:
		return parseTime(string(t))
	case string:
		return parseTime(t)
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ============================================================================
// Lease Row Scanner
// ============================================================================

// leaseColumns is the column list shared by INSERT and SELECT. It MUST
// match leaseRow.scanArgs and leaseInsertArgs.
const leaseColumns = `ip, mac, lease_status, hostname, subnet, "timestamp"`

// leaseRow holds all columns from a lease query for scanning
type leaseRow struct {
	IP          sql.NullString
	MAC         string
	LeaseStatus sql.NullString
	Hostname    sql.NullString
	Subnet      sql.NullString
	Timestamp   any
}

func (r *leaseRow) scanArgs() []any {
	return []any{
		&r.IP,
		&r.MAC,
		&r.LeaseStatus,
		&r.Hostname,
		&r.Subnet,
		&r.Timestamp,
	}
}

func (r *leaseRow) toDomain() (domain.LeaseRecord, error) {
	ts, err := scanTime(r.Timestamp)
	if err != nil {
		return domain.LeaseRecord{}, err
	}
	return domain.LeaseRecord{
		IP:          nullToString(r.IP),
		MAC:         r.MAC,
		LeaseStatus: domain.LeaseStatus(nullToString(r.LeaseStatus)),
		Hostname:    nullToString(r.Hostname),
		Subnet:      nullToString(r.Subnet),
		Timestamp:   ts,
	}, nil
}

func leaseInsertArgs(l domain.LeaseRecord) []any {
	return []any{
		l.IP,
		l.MAC,
		string(l.LeaseStatus),
		stringToNull(l.Hostname),
		l.Subnet,
		storedTime(l.Timestamp),
	}
}

// ============================================================================
// DNS Row Scanner
// ============================================================================

// dnsColumns MUST match dnsRow.scanArgs and dnsInsertArgs
const dnsColumns = `name, hostname, record_type, data, "timestamp"`

type dnsRow struct {
	Name       string
	Hostname   string
	RecordType string
	Data       string
	Timestamp  any
}

func (r *dnsRow) scanArgs() []any {
	return []any{&r.Name, &r.Hostname, &r.RecordType, &r.Data, &r.Timestamp}
}

func (r *dnsRow) toDomain() (domain.DNSRecord, error) {
	ts, err := scanTime(r.Timestamp)
	if err != nil {
		return domain.DNSRecord{}, err
	}
	return domain.DNSRecord{
		Name:       r.Name,
		Hostname:   r.Hostname,
		RecordType: domain.RecordType(r.RecordType),
		Data:       r.Data,
		Timestamp:  ts,
	}, nil
}

func dnsInsertArgs(rec domain.DNSRecord) []any {
	return []any{
		rec.Name,
		rec.Hostname,
		string(rec.RecordType),
		rec.Data,
		storedTime(rec.Timestamp),
	}
}
