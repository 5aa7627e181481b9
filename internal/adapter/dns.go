package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clientparser/internal/codec"
	"clientparser/internal/domain"
)

// zoneListingScript lists a zone as JSON rows of {Name, Hostname, Type,
// Data}. Data is the raw RecordData object; the codec picks the property
// that matters for each type.
const zoneListingScript = `$ErrorActionPreference = 'Stop'; ` +
	`Get-DnsServerResourceRecord -ComputerName %s -ZoneName %s%s | ` +
	`Select-Object @{n='Name';e={%s}},@{n='Hostname';e={$_.HostName}},` +
	`@{n='Type';e={[string]$_.RecordType}},@{n='Data';e={$_.RecordData}} | ` +
	`ConvertTo-Json -Depth 4 -Compress`

// psQuote renders s as a single-quoted PowerShell string literal
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// zoneCommand returns the PowerShell invocation listing zone on server
func zoneCommand(powerShell, server, zone string, ptrOnly bool) (string, []string) {
	filter := ""
	if ptrOnly {
		filter = " -RRType Ptr"
	}
	script := fmt.Sprintf(zoneListingScript, psQuote(server), psQuote(zone), filter, psQuote(zone))
	return powerShell, []string{"-NoProfile", "-NonInteractive", "-Command", script}
}

// DNSForwardAdapter lists every record of the forward zone
type DNSForwardAdapter struct {
	runner Runner
	server string
	zone   string
	parser *codec.DNSParser
	options
}

// NewDNSForwardAdapter creates a forward zone adapter
func NewDNSForwardAdapter(runner Runner, server, zone string, opts ...Option) *DNSForwardAdapter {
	return &DNSForwardAdapter{
		runner:  runner,
		server:  server,
		zone:    zone,
		parser:  codec.NewDNSParser(),
		options: applyOptions(opts),
	}
}

// Name implements Adapter
func (a *DNSForwardAdapter) Name() string {
	return "dns_forward"
}

// Command returns the PowerShell invocation for the forward zone
func (a *DNSForwardAdapter) Command() (string, []string) {
	return zoneCommand(a.powerShellPath, a.server, a.zone, false)
}

// Collect implements Adapter
func (a *DNSForwardAdapter) Collect(ctx context.Context, at time.Time) (*domain.Batch, error) {
	return gather(ctx, a.Name(), 1, []string{a.zone}, func(ctx context.Context, zone string) (*domain.Batch, error) {
		name, args := a.Command()
		out, err := a.runner.Output(ctx, name, args...)
		if err != nil {
			return nil, err
		}

		records, err := a.parser.ParseForward(zone, out, at)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("zone collected", "zone", zone, "records", len(records))

		b := domain.NewBatch()
		b.AddDNS(records...)
		return b, nil
	})
}

// DNSReverseAdapter lists the PTR records of each reverse zone
type DNSReverseAdapter struct {
	runner      Runner
	server      string
	forwardZone string
	zones       []string
	parser      *codec.DNSParser
	options
}

// NewDNSReverseAdapter creates a reverse zone adapter. PTR targets inside
// forwardZone are shortened to their host part.
func NewDNSReverseAdapter(runner Runner, server, forwardZone string, zones []string, opts ...Option) *DNSReverseAdapter {
	return &DNSReverseAdapter{
		runner:      runner,
		server:      server,
		forwardZone: forwardZone,
		zones:       zones,
		parser:      codec.NewDNSParser(),
		options:     applyOptions(opts),
	}
}

// Name implements Adapter
func (a *DNSReverseAdapter) Name() string {
	return "dns_reverse"
}

// Command returns the PowerShell invocation for one reverse zone
func (a *DNSReverseAdapter) Command(zone string) (string, []string) {
	return zoneCommand(a.powerShellPath, a.server, zone, true)
}

// Collect implements Adapter
func (a *DNSReverseAdapter) Collect(ctx context.Context, at time.Time) (*domain.Batch, error) {
	return gather(ctx, a.Name(), a.workers, a.zones, func(ctx context.Context, zone string) (*domain.Batch, error) {
		name, args := a.Command(zone)
		out, err := a.runner.Output(ctx, name, args...)
		if err != nil {
			return nil, err
		}

		records, err := a.parser.ParseReverse(zone, a.forwardZone, out, at)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("reverse zone collected", "zone", zone, "records", len(records))

		b := domain.NewBatch()
		b.AddDNS(records...)
		return b, nil
	})
}
