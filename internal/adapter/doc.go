// Package adapter collects raw DHCP and DNS state from Windows servers.
//
// Each adapter issues one command per target (a DHCP scope, a DNS zone)
// through a Runner and hands the output to the matching codec parser.
//
// # Adapters
//
// DHCPAdapter runs "netsh dhcp server \\<server> scope <scope> show clients 1"
// for every configured scope.
//
// DNSForwardAdapter lists the forward zone with Get-DnsServerResourceRecord.
//
// DNSReverseAdapter lists the PTR records of every reverse zone.
//
// # Runners
//
// LocalRunner executes commands on the collector host. SSHRunner executes
// them on a Windows jump host over SSH so the collector can run elsewhere.
//
// # Concurrency
//
// Targets are fanned out to a bounded pool (WithWorkers). A failing target
// does not discard the others: Collect returns the merged batch together
// with one domain.SourceInvocationError per failed target.
//
// # Adapter Registry
//
// Registry holds the active adapter set and runs them concurrently for each
// collection cycle. Replace swaps the set when the configuration changes.
package adapter
