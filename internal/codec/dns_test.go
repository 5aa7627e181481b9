package codec

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"clientparser/internal/domain"
)

func TestDNSParserParseForward(t *testing.T) {
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	raw := `[
		{"Name": " corp.local ", "Hostname": " www ", "Type": "A", "Data": " 10.0.0.80 "},
		{"Name": "corp.local", "HostName": "mail", "Type": "MX", "Data": {"MailExchange": "mx1.corp.local.", "Preference": 10}},
		{"Name": "corp.local", "Hostname": "@", "Type": "SOA", "Data": "ns1.corp.local."},
		{"Name": "corp.local", "Hostname": "srv1", "Type": "A", "Data": {"IPv4Address": {"Address": 1342177290, "IPAddressToString": "10.0.0.80"}}},
		{"Name": "", "Hostname": "alias", "Type": "cname", "Data": "www.corp.local."},
		{"Name": "corp.local", "Hostname": "broken", "Type": "", "Data": "x"}
	]`

	records, err := NewDNSParser().ParseForward("corp.local", raw, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.DNSRecord{
		{Name: "corp.local", Hostname: "www", RecordType: domain.RecordTypeA, Data: "10.0.0.80", Timestamp: at},
		{Name: "corp.local", Hostname: "mail", RecordType: domain.RecordTypeMX, Data: "mx1.corp.local.", Timestamp: at},
		{Name: "corp.local", Hostname: "@", RecordType: "SOA", Data: "", Timestamp: at},
		{Name: "corp.local", Hostname: "srv1", RecordType: domain.RecordTypeA, Data: "10.0.0.80", Timestamp: at},
		{Name: "corp.local", Hostname: "alias", RecordType: domain.RecordTypeCNAME, Data: "www.corp.local.", Timestamp: at},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(records), records)
	}
	for i, w := range want {
		if records[i] != w {
			t.Errorf("record %d = %+v, want %+v", i, records[i], w)
		}
	}
}

func TestDNSParserParseForwardShapes(t *testing.T) {
	parser := NewDNSParser()
	at := time.Now()

	t.Run("single object", func(t *testing.T) {
		records, err := parser.ParseForward("corp.local", `{"Name":"corp.local","Hostname":"www","Type":"A","Data":"10.0.0.80"}`, at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 || records[0].Hostname != "www" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		records, err := parser.ParseForward("corp.local", "  \r\n", at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})

	t.Run("record wider than the data column is skipped", func(t *testing.T) {
		dkim := "v=DKIM1; k=rsa; p=" + strings.Repeat("A", 392)
		raw := fmt.Sprintf(`[
			{"Name":"corp.local","Hostname":"sel._domainkey","Type":"TXT","Data":%q},
			{"Name":"corp.local","Hostname":"www","Type":"A","Data":"10.0.0.80"}
		]`, dkim)
		records, err := parser.ParseForward("corp.local", raw, at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 || records[0].Hostname != "www" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("garbage output", func(t *testing.T) {
		if _, err := parser.ParseForward("corp.local", "Get-DnsServerResourceRecord : Failed to enumerate", at); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestDNSParserParseReverse(t *testing.T) {
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	raw := `[
		{"Name": "1.168.192.in-addr.arpa", "Hostname": "5", "Type": "PTR", "Data": "desktop1.corp.local."},
		{"Name": "1.168.192.in-addr.arpa", "Hostname": "6", "Type": "PTR", "Data": {"PtrDomainName": "gw.other.net."}},
		{"Name": "1.168.192.in-addr.arpa", "Hostname": "@", "Type": "NS", "Data": "ns1.corp.local."},
		{"Name": "1.168.192.in-addr.arpa", "Hostname": "", "Type": "PTR", "Data": "orphan.corp.local."}
	]`

	records, err := NewDNSParser().ParseReverse("1.168.192.in-addr.arpa", "corp.local", raw, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.DNSRecord{
		{Name: "1.168.192.in-addr.arpa", Hostname: "desktop1", RecordType: domain.RecordTypePTR, Data: "192.168.1.5", Timestamp: at},
		{Name: "1.168.192.in-addr.arpa", Hostname: "gw.other.net.", RecordType: domain.RecordTypePTR, Data: "192.168.1.6", Timestamp: at},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(records), records)
	}
	for i, w := range want {
		if records[i] != w {
			t.Errorf("record %d = %+v, want %+v", i, records[i], w)
		}
	}
}

func TestDNSParserParseReverseMultiLabelOwner(t *testing.T) {
	raw := `[{"Name": "168.192.in-addr.arpa", "Hostname": "5.1", "Type": "PTR", "Data": "desktop1.corp.local."}]`

	records, err := NewDNSParser().ParseReverse("168.192.in-addr.arpa", "corp.local", raw, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Data != "192.168.1.5" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestDNSParserParseReverseRejectsForwardZone(t *testing.T) {
	if _, err := NewDNSParser().ParseReverse("corp.local", "corp.local", "[]", time.Now()); err == nil {
		t.Error("expected error for a zone without the reverse suffix")
	}
}

func TestReverseZonePrefix(t *testing.T) {
	tests := []struct {
		zone    string
		want    string
		wantErr bool
	}{
		{"1.168.192.in-addr.arpa", "192.168.1", false},
		{"2.1.10.IN-ADDR.ARPA.", "10.1.2", false},
		{"168.192.in-addr.arpa", "192.168", false},
		{".in-addr.arpa", "", true},
		{"corp.local", "", true},
	}

	for _, tt := range tests {
		got, err := ReverseZonePrefix(tt.zone)
		if (err != nil) != tt.wantErr {
			t.Errorf("ReverseZonePrefix(%q) error = %v, wantErr %v", tt.zone, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ReverseZonePrefix(%q) = %q, want %q", tt.zone, got, tt.want)
		}
	}
}

func TestReverseReconstructionRoundTrip(t *testing.T) {
	prefix, err := ReverseZonePrefix("1.168.192" + ReverseZoneSuffix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := prefix + "." + reverseLabels("5"); got != "192.168.1.5" {
		t.Errorf("reconstructed %q, want 192.168.1.5", got)
	}
}

func TestStripZone(t *testing.T) {
	tests := []struct {
		fqdn, zone, want string
	}{
		{"desktop1.corp.local.", "corp.local", "desktop1"},
		{"desktop1.corp.local", "corp.local", "desktop1"},
		{"Desktop1.CORP.local.", "corp.local", "Desktop1"},
		{"desktop1.other.net.", "corp.local", "desktop1.other.net."},
		{"desktop1.corp.local.", "", "desktop1.corp.local."},
		{"notcorp.local.", "corp.local", "notcorp.local."},
	}

	for _, tt := range tests {
		if got := StripZone(tt.fqdn, tt.zone); got != tt.want {
			t.Errorf("StripZone(%q, %q) = %q, want %q", tt.fqdn, tt.zone, got, tt.want)
		}
	}
}
