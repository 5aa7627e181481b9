package codec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"clientparser/internal/domain"
)

const netshListing = `
Changed the current scope context to 10.0.1.0 scope.

Type : N - NONE, D - DHCP B - BOOTP, U - UNSPECIFIED, R - RESERVATION IP
============================================================================================
IP Address      - Subnet Mask    - Unique ID           - Lease Expires            -Type -Name
============================================================================================

10.0.1.23       - 255.255.255.0  - 00-11-22-33-44-55   - 10/20/2026 8:00:00 AM   -N- desktop1.corp.local
10.0.1.24       - 255.255.255.0  - aa-bb-cc-dd-ee-ff   - 10/20/2026 9:15:00 AM   -U- Printer-2.corp.local
10.0.1.25       - 255.255.255.0  - 01-02-03-04-05-06-07-08 - 10/21/2026 1:00:00 PM -D-
10.0.1.26       - 255.255.255.0  - 0a-0b-0c-0d-0e-0f   - INACTIVE                 -R- reserved.corp.local

No of Clients(version 4): 4 in the Scope : 10.0.1.0.

Command completed successfully.
`

func TestLeaseParserParse(t *testing.T) {
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	leases := NewLeaseParser().Parse("10.0.1.0", netshListing, at)

	if len(leases) != 3 {
		t.Fatalf("expected 3 leases, got %d: %+v", len(leases), leases)
	}

	want := []domain.LeaseRecord{
		{IP: "10.0.1.23", MAC: "00:11:22:33:44:55", LeaseStatus: "N", Hostname: "desktop1", Subnet: "10.0.1.0", Timestamp: at},
		{IP: "10.0.1.24", MAC: "AA:BB:CC:DD:EE:FF", LeaseStatus: "U", Hostname: "printer-2", Subnet: "10.0.1.0", Timestamp: at},
		{IP: "10.0.1.25", MAC: "01:02:03:04:05:06:07:08:XX", LeaseStatus: "D", Hostname: "", Subnet: "10.0.1.0", Timestamp: at},
	}
	for i, w := range want {
		if leases[i] != w {
			t.Errorf("lease %d = %+v, want %+v", i, leases[i], w)
		}
	}
}

func TestLeaseParserParseLine(t *testing.T) {
	parser := NewLeaseParser()
	at := time.Now()

	t.Run("end to end example", func(t *testing.T) {
		line := "10.0.1.23 - 255.255.255.0 - 00-11-22-33-44-55 - 10/20/2026 8:00:00 AM -N- desktop1.corp.local"
		lease, err := parser.ParseLine(line, ScopeSubnet("10.0.1.0"), at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lease.IP != "10.0.1.23" || lease.MAC != "00:11:22:33:44:55" ||
			lease.LeaseStatus != domain.LeaseStatusNew || lease.Hostname != "desktop1" ||
			lease.Subnet != "10.0.1.0" {
			t.Errorf("unexpected lease: %+v", lease)
		}
	})

	t.Run("lines without active marker never yield a record", func(t *testing.T) {
		lines := []string{
			"IP Address      - Subnet Mask    - Unique ID           - Lease Expires  -Type -Name",
			" 10.0.1.23 - 255.255.255.0 - 00-11-22-33-44-55 - never -N- host",
			"2.0.1.23 - 255.255.255.0 - 00-11-22-33-44-55 - never -N- host",
			"",
		}
		for _, line := range lines {
			if _, err := parser.ParseLine(line, "10.0.1.0", at); !errors.Is(err, domain.ErrParseSkip) {
				t.Errorf("ParseLine(%q) error = %v, want ErrParseSkip", line, err)
			}
		}
	})

	t.Run("missing status marker is skipped", func(t *testing.T) {
		line := "10.0.1.23 - 255.255.255.0 - 00-11-22-33-44-55 - 10/20/2026 8:00:00 AM -X- host"
		if _, err := parser.ParseLine(line, "10.0.1.0", at); !errors.Is(err, domain.ErrParseSkip) {
			t.Errorf("expected ErrParseSkip, got %v", err)
		}
	})

	t.Run("summary line starting with 1 is skipped", func(t *testing.T) {
		line := "1 client(s) in the scope"
		if _, err := parser.ParseLine(line, "10.0.1.0", at); !errors.Is(err, domain.ErrParseSkip) {
			t.Errorf("expected ErrParseSkip, got %v", err)
		}
	})

	t.Run("splits on first marker only", func(t *testing.T) {
		line := "10.0.1.30 - 255.255.255.0 - 00-11-22-33-44-66 - 10/20/2026 8:00:00 AM -U- odd-N-name.corp.local"
		lease, err := parser.ParseLine(line, "10.0.1.0", at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lease.LeaseStatus != domain.LeaseStatusUpdate || lease.Hostname != "odd-n-name" {
			t.Errorf("unexpected lease: %+v", lease)
		}
	})
}

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		name   string
		octets []string
		want   string
	}{
		{"six octets", []string{"00", "11", "22", "33", "44", "55"}, "00:11:22:33:44:55"},
		{"trims and upper-cases", []string{" aa", "bb ", "cc", "dd", "ee", "ff  "}, "AA:BB:CC:DD:EE:FF"},
		{"overlong flagged", []string{"01", "02", "03", "04", "05", "06", "07"}, "01:02:03:04:05:06:07:XX"},
		{"short kept", []string{"01", "02"}, "01:02"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMAC(tt.octets); got != tt.want {
				t.Errorf("NormalizeMAC(%v) = %q, want %q", tt.octets, got, tt.want)
			}
		})
	}
}

func TestNormalizeMACSuffixAppliedOnce(t *testing.T) {
	for n := 7; n <= 20; n++ {
		octets := make([]string, n)
		for i := range octets {
			octets[i] = "ab"
		}
		mac := NormalizeMAC(octets)
		if strings.Count(mac, domain.OverlongMACSuffix) != 1 || !strings.HasSuffix(mac, domain.OverlongMACSuffix) {
			t.Errorf("%d octets: %q should carry exactly one %s suffix", n, mac, domain.OverlongMACSuffix)
		}
	}
}

func TestScopeSubnet(t *testing.T) {
	tests := map[string]string{
		"10.0.1.0":             "10.0.1.0",
		"  192.168.1.0 office": "192.168.1.0",
		"":                     "",
	}
	for input, want := range tests {
		if got := ScopeSubnet(input); got != want {
			t.Errorf("ScopeSubnet(%q) = %q, want %q", input, got, want)
		}
	}
}
