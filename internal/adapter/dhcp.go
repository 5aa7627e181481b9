package adapter

import (
	"context"
	"strings"
	"time"

	"clientparser/internal/codec"
	"clientparser/internal/domain"
)

// DHCPAdapter lists the clients of every configured scope on one DHCP
// server
type DHCPAdapter struct {
	runner Runner
	server string
	scopes []string
	parser *codec.LeaseParser
	options
}

// NewDHCPAdapter creates a DHCP lease adapter
func NewDHCPAdapter(runner Runner, server string, scopes []string, opts ...Option) *DHCPAdapter {
	return &DHCPAdapter{
		runner:  runner,
		server:  server,
		scopes:  scopes,
		parser:  codec.NewLeaseParser(),
		options: applyOptions(opts),
	}
}

// Name implements Adapter
func (a *DHCPAdapter) Name() string {
	return "dhcp"
}

// Command returns the netsh invocation for a scope
func (a *DHCPAdapter) Command(scope string) (string, []string) {
	server := a.server
	if !strings.HasPrefix(server, `\\`) {
		server = `\\` + server
	}
	return a.netshPath, []string{
		"dhcp", "server", server,
		"scope", codec.ScopeSubnet(scope),
		"show", "clients", "1",
	}
}

// Collect implements Adapter. Every configured scope is declared in the
// batch, including scopes whose invocation failed.
func (a *DHCPAdapter) Collect(ctx context.Context, at time.Time) (*domain.Batch, error) {
	batch, err := gather(ctx, a.Name(), a.workers, a.scopes, func(ctx context.Context, scope string) (*domain.Batch, error) {
		name, args := a.Command(scope)
		out, err := a.runner.Output(ctx, name, args...)
		if err != nil {
			return nil, err
		}

		leases := a.parser.Parse(scope, out, at)
		a.logger.Debug("scope collected", "scope", scope, "leases", len(leases))

		b := domain.NewBatch()
		b.AddLeases(leases...)
		return b, nil
	})

	for _, scope := range a.scopes {
		batch.DeclareSubnet(codec.ScopeSubnet(scope))
	}
	return batch, err
}
