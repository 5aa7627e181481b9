package domain

import (
	"fmt"
	"net/netip"
	"time"
)

// LeaseStatus is the single-letter marker netsh prints between the lease
// expiry and the client name
type LeaseStatus string

const (
	LeaseStatusNew    LeaseStatus = "N"
	LeaseStatusUpdate LeaseStatus = "U"
	LeaseStatusDelete LeaseStatus = "D"
)

// NominalMACLength is the length of a colon-separated 6-octet MAC
const NominalMACLength = 17

// OverlongMACSuffix flags a MAC that normalized to more than six octets
const OverlongMACSuffix = ":XX"

// Column widths of the lease tables
const (
	MaxMACLength   = 26
	MaxFieldLength = 255
)

// LeaseRecord represents one active DHCP lease
type LeaseRecord struct {
	IP          string      `json:"ip"`
	MAC         string      `json:"mac"`
	LeaseStatus LeaseStatus `json:"lease_status"`
	Hostname    string      `json:"hostname"`
	Subnet      string      `json:"subnet"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Validate checks the fields storage cannot accept
func (l LeaseRecord) Validate() error {
	addr, err := netip.ParseAddr(l.IP)
	if err != nil || !addr.Is4() {
		return fmt.Errorf("invalid lease ip %q", l.IP)
	}
	if l.MAC == "" {
		return fmt.Errorf("lease %s has no mac", l.IP)
	}
	if len(l.MAC) > MaxMACLength {
		return fmt.Errorf("lease %s mac %q exceeds %d characters", l.IP, l.MAC, MaxMACLength)
	}
	if len(l.Hostname) > MaxFieldLength {
		return fmt.Errorf("lease %s hostname exceeds %d characters", l.IP, MaxFieldLength)
	}
	if l.Subnet == "" {
		return fmt.Errorf("lease %s has no subnet", l.IP)
	}
	return nil
}

// IsOverlongMAC reports whether the MAC carries the overlong marker
func (l LeaseRecord) IsOverlongMAC() bool {
	return len(l.MAC) > NominalMACLength
}
