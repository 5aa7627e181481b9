package codec

import (
	"regexp"
	"strings"
	"time"

	"clientparser/internal/domain"
)

// activeLeaseMarker prefixes every lease row netsh prints; header and
// summary lines never start with it
const activeLeaseMarker = "1"

// leaseStatusPattern matches the status column, e.g. "-D-", between the
// expiry and the client name
var leaseStatusPattern = regexp.MustCompile(`-([NUD])-`)

// LeaseParser parses netsh DHCP client listings
type LeaseParser struct{}

// NewLeaseParser creates a lease parser
func NewLeaseParser() *LeaseParser {
	return &LeaseParser{}
}

// Parse converts the output for one scope into lease records, in source
// order. Rows it cannot read are skipped.
func (p *LeaseParser) Parse(scope, raw string, at time.Time) []domain.LeaseRecord {
	subnet := ScopeSubnet(scope)
	leases := make([]domain.LeaseRecord, 0)

	for _, line := range splitLines(raw) {
		lease, err := p.ParseLine(line, subnet, at)
		if err != nil {
			continue
		}
		leases = append(leases, lease)
	}

	return leases
}

// ParseLine parses a single row of the form
//
//	10.0.1.23 - 255.255.255.0 - 00-11-22-33-44-55 - 10/20/2026 8:00:00 AM -N- desktop1.corp.local
//
// and returns domain.ErrParseSkip for anything else.
func (p *LeaseParser) ParseLine(line, subnet string, at time.Time) (domain.LeaseRecord, error) {
	if !strings.HasPrefix(line, activeLeaseMarker) {
		return domain.LeaseRecord{}, domain.ErrParseSkip
	}

	loc := leaseStatusPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return domain.LeaseRecord{}, domain.ErrParseSkip
	}
	left := line[:loc[0]]
	status := line[loc[2]:loc[3]]
	right := strings.TrimSpace(line[loc[1]:])

	// ip - mask - mac octets... - expiry
	tokens := strings.Split(left, "-")
	var octets []string
	if len(tokens) > 3 {
		octets = tokens[2 : len(tokens)-1]
	}

	lease := domain.LeaseRecord{
		IP:          strings.TrimSpace(tokens[0]),
		MAC:         NormalizeMAC(octets),
		LeaseStatus: domain.LeaseStatus(status),
		Hostname:    strings.ToLower(strings.Split(right, ".")[0]),
		Subnet:      subnet,
		Timestamp:   at,
	}
	if err := lease.Validate(); err != nil {
		return domain.LeaseRecord{}, domain.ErrParseSkip
	}

	return lease, nil
}

// NormalizeMAC joins hex pairs with colons in upper case. A result longer
// than a 6-octet MAC gets a single ":XX" suffix so the overlong value is
// kept but flagged.
func NormalizeMAC(octets []string) string {
	parts := make([]string, 0, len(octets))
	for _, o := range octets {
		parts = append(parts, strings.ToUpper(strings.TrimSpace(o)))
	}

	mac := strings.Join(parts, ":")
	if len(mac) > domain.NominalMACLength {
		mac += domain.OverlongMACSuffix
	}
	return mac
}

// ScopeSubnet returns the first token of a scope identifier
func ScopeSubnet(scope string) string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
