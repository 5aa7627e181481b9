package adapter

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// testSSHServer accepts password logins for svc/secret and answers exec
// requests with handler
type testSSHServer struct {
	addr        string
	hostKey     ssh.PublicKey
	connections atomic.Int32

	mu       sync.Mutex
	commands []string
}

func startSSHServer(t *testing.T, handler func(cmd string) (string, uint32)) *testSSHServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "svc" && string(pass) == "secret" {
				return nil, nil
			}
			return nil, fmt.Errorf("access denied for %s", c.User())
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	srv := &testSSHServer{addr: ln.Addr().String(), hostKey: signer.PublicKey()}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			srv.connections.Add(1)
			go srv.serve(conn, cfg, handler)
		}
	}()
	return srv
}

func (s *testSSHServer) serve(conn net.Conn, cfg *ssh.ServerConfig, handler func(string) (string, uint32)) {
	_, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer ch.Close()
			for req := range requests {
				if req.Type != "exec" {
					req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
					req.Reply(false, nil)
					return
				}
				req.Reply(true, nil)

				s.mu.Lock()
				s.commands = append(s.commands, payload.Command)
				s.mu.Unlock()

				out, status := handler(payload.Command)
				ch.Write([]byte(out))
				ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
				return
			}
		}()
	}
}

func (s *testSSHServer) hostPort(t *testing.T) (string, int) {
	t.Helper()
	host, port, err := net.SplitHostPort(s.addr)
	if err != nil {
		t.Fatal(err)
	}
	var p int
	fmt.Sscanf(port, "%d", &p)
	return host, p
}

func TestSSHRunnerOutput(t *testing.T) {
	srv := startSSHServer(t, func(cmd string) (string, uint32) {
		return "leases for " + cmd, 0
	})
	host, port := srv.hostPort(t)

	runner, err := NewSSHRunner(SSHConfig{Host: host, Port: port, User: "svc", Password: "secret"}, nil)
	if err != nil {
		t.Fatalf("NewSSHRunner() error: %v", err)
	}
	defer runner.Close()

	out, err := runner.Output(context.Background(), "netsh", "dhcp", "server", `\\dhcp01`, "scope", "10.0.1.0", "show", "clients", "1")
	if err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	want := `leases for netsh dhcp server \\dhcp01 scope 10.0.1.0 show clients 1`
	if out != want {
		t.Errorf("Output() = %q, want %q", out, want)
	}
}

func TestSSHRunnerSharesConnection(t *testing.T) {
	srv := startSSHServer(t, func(cmd string) (string, uint32) { return "ok", 0 })
	host, port := srv.hostPort(t)

	runner, err := NewSSHRunner(SSHConfig{Host: host, Port: port, User: "svc", Password: "secret", MaxSessions: 3}, nil)
	if err != nil {
		t.Fatalf("NewSSHRunner() error: %v", err)
	}
	defer runner.Close()

	// dial once before fanning out
	if _, err := runner.Output(context.Background(), "hostname"); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := runner.Output(context.Background(), "hostname"); err != nil {
				t.Errorf("Output() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := srv.connections.Load(); n != 1 {
		t.Errorf("expected one shared connection, got %d", n)
	}
}

func TestSSHRunnerCommandFailure(t *testing.T) {
	srv := startSSHServer(t, func(cmd string) (string, uint32) { return "", 1 })
	host, port := srv.hostPort(t)

	runner, err := NewSSHRunner(SSHConfig{Host: host, Port: port, User: "svc", Password: "secret"}, nil)
	if err != nil {
		t.Fatalf("NewSSHRunner() error: %v", err)
	}
	defer runner.Close()

	if _, err := runner.Output(context.Background(), "powershell", "-Command", "Get-DnsServerZone"); err == nil {
		t.Error("expected error for non-zero exit status")
	}
}

func TestSSHRunnerAuthFailure(t *testing.T) {
	srv := startSSHServer(t, func(cmd string) (string, uint32) { return "", 0 })
	host, port := srv.hostPort(t)

	runner, err := NewSSHRunner(SSHConfig{Host: host, Port: port, User: "svc", Password: "wrong"}, nil)
	if err != nil {
		t.Fatalf("NewSSHRunner() error: %v", err)
	}
	defer runner.Close()

	if _, err := runner.Output(context.Background(), "hostname"); err == nil {
		t.Error("expected authentication failure")
	}
}

func TestSSHRunnerKnownHosts(t *testing.T) {
	srv := startSSHServer(t, func(cmd string) (string, uint32) { return "ok", 0 })
	host, port := srv.hostPort(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize(srv.addr)}, srv.hostKey)
	if err := os.WriteFile(good, []byte(line+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	runner, err := NewSSHRunner(SSHConfig{Host: host, Port: port, User: "svc", Password: "secret", KnownHostsPath: good}, nil)
	if err != nil {
		t.Fatalf("NewSSHRunner() error: %v", err)
	}
	defer runner.Close()
	if _, err := runner.Output(context.Background(), "hostname"); err != nil {
		t.Errorf("known host should be accepted: %v", err)
	}

	// a different key for the same address
	_, otherPriv, _ := ed25519.GenerateKey(rand.Reader)
	otherSigner, _ := ssh.NewSignerFromKey(otherPriv)
	bad := filepath.Join(dir, "known_hosts_bad")
	line = knownhosts.Line([]string{knownhosts.Normalize(srv.addr)}, otherSigner.PublicKey())
	if err := os.WriteFile(bad, []byte(line+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	mismatched, err := NewSSHRunner(SSHConfig{Host: host, Port: port, User: "svc", Password: "secret", KnownHostsPath: bad}, nil)
	if err != nil {
		t.Fatalf("NewSSHRunner() error: %v", err)
	}
	defer mismatched.Close()
	if _, err := mismatched.Output(context.Background(), "hostname"); err == nil {
		t.Error("mismatched host key should be rejected")
	}
}

func TestAuthMethods(t *testing.T) {
	dir := t.TempDir()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	plainBlock, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "id_plain")
	os.WriteFile(plain, pem.EncodeToMemory(plainBlock), 0600)

	encBlock, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}
	encrypted := filepath.Join(dir, "id_encrypted")
	os.WriteFile(encrypted, pem.EncodeToMemory(encBlock), 0600)

	tests := []struct {
		name      string
		cfg       SSHConfig
		wantCount int
		wantErr   bool
	}{
		{"password only", SSHConfig{Password: "secret"}, 1, false},
		{"plain key", SSHConfig{KeyPath: plain}, 1, false},
		{"plain key and password", SSHConfig{KeyPath: plain, Password: "secret"}, 2, false},
		{"encrypted key with passphrase", SSHConfig{KeyPath: encrypted, Password: "hunter2"}, 2, false},
		{"encrypted key without passphrase", SSHConfig{KeyPath: encrypted}, 0, true},
		{"missing key file", SSHConfig{KeyPath: filepath.Join(dir, "nope")}, 0, true},
		{"no credentials", SSHConfig{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			methods, err := authMethods(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("authMethods() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(methods) != tt.wantCount {
				t.Errorf("got %d auth methods, want %d", len(methods), tt.wantCount)
			}
		})
	}
}

func TestNewSSHRunnerValidation(t *testing.T) {
	if _, err := NewSSHRunner(SSHConfig{User: "svc", Password: "x"}, nil); err == nil {
		t.Error("expected error without host")
	}
	if _, err := NewSSHRunner(SSHConfig{Host: "jump01", User: "svc", Password: "x", KnownHostsPath: "/nonexistent/known_hosts"}, nil); err == nil {
		t.Error("expected error for unreadable known_hosts")
	}
}

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"netsh", []string{"dhcp", "server", `\\dhcp01`, "scope", "10.0.1.0"}, `netsh dhcp server \\dhcp01 scope 10.0.1.0`},
		{"powershell", []string{"-Command", "Get-X -Name 'a b' | ConvertTo-Json"}, `powershell -Command "Get-X -Name 'a b' | ConvertTo-Json"`},
		{`C:\Program Files\PowerShell\7\pwsh.exe`, []string{"-Command", `say "hi"`}, `"C:\Program Files\PowerShell\7\pwsh.exe" -Command "say \"hi\""`},
		{"echo", []string{""}, `echo ""`},
	}

	for _, tt := range tests {
		if got := CommandLine(tt.name, tt.args...); got != tt.want {
			t.Errorf("CommandLine(%q, %q) = %s, want %s", tt.name, tt.args, got, tt.want)
		}
	}
}
