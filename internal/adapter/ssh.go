package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/sync/semaphore"
)

const (
	defaultSSHTimeout = 10 * time.Second
	// OpenSSH's MaxSessions default is 10
	defaultMaxSessions = 8
)

// SSHConfig describes the jump host commands are executed on
type SSHConfig struct {
	Host           string
	Port           int
	User           string
	KeyPath        string
	Password       string
	KnownHostsPath string
	Timeout        time.Duration
	MaxSessions    int
}

// SSHRunner executes commands on a remote Windows host over SSH. It dials
// lazily, shares one client between calls and opens one session per call.
type SSHRunner struct {
	addr     string
	config   *ssh.ClientConfig
	timeout  time.Duration
	sessions *semaphore.Weighted
	logger   *slog.Logger

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHRunner validates credentials and prepares the client config. No
// connection is made until the first command.
func NewSSHRunner(cfg SSHConfig, logger *slog.Logger) (*SSHRunner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Host == "" || cfg.User == "" {
		return nil, fmt.Errorf("ssh host and user are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultSSHTimeout
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}

	auth, err := authMethods(cfg)
	if err != nil {
		return nil, err
	}

	hostKey, err := hostKeyCallback(cfg.KnownHostsPath)
	if err != nil {
		return nil, err
	}
	if cfg.KnownHostsPath == "" {
		logger.Warn("ssh host key verification disabled; set SSH_KNOWN_HOSTS to enable it", "host", cfg.Host)
	}

	return &SSHRunner{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		config: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            auth,
			HostKeyCallback: hostKey,
			Timeout:         cfg.Timeout,
		},
		timeout:  cfg.Timeout,
		sessions: semaphore.NewWeighted(int64(cfg.MaxSessions)),
		logger:   logger,
	}, nil
}

// authMethods builds key and/or password authentication
func authMethods(cfg SSHConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.KeyPath != "" {
		pem, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}

		signer, err := ssh.ParsePrivateKey(pem)
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) && cfg.Password != "" {
			// the password doubles as the key passphrase
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(cfg.Password))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("ssh key path or password is required")
	}
	return methods, nil
}

func hostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts: %w", err)
	}
	return cb, nil
}

// Output runs the command on the remote host and returns stdout
func (r *SSHRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	if err := r.sessions.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sessions.Release(1)

	session, err := r.newSession(ctx)
	if err != nil {
		return "", err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	line := CommandLine(name, args...)
	r.logger.Debug("ssh exec", "addr", r.addr, "command", name)

	if err := session.Run(line); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

// newSession opens a session, redialing once if the shared client has gone
// away
func (r *SSHRunner) newSession(ctx context.Context) (*ssh.Session, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	session, err := client.NewSession()
	if err == nil {
		return session, nil
	}

	r.logger.Debug("ssh session failed, reconnecting", "addr", r.addr, "error", err)
	r.drop(client)

	client, err = r.connect(ctx)
	if err != nil {
		return nil, err
	}
	session, err = client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// connect returns the shared client, dialing it if needed
func (r *SSHRunner) connect(ctx context.Context) (*ssh.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client, nil
	}

	dialer := &net.Dialer{Timeout: r.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", r.addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, r.addr, r.config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}

	r.client = ssh.NewClient(sshConn, chans, reqs)
	r.logger.Info("ssh connected", "addr", r.addr, "user", r.config.User)
	return r.client, nil
}

// drop forgets client if it is still the shared one
func (r *SSHRunner) drop(client *ssh.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == client {
		r.client.Close()
		r.client = nil
	}
}

// Close closes the shared connection
func (r *SSHRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

// CommandLine joins name and args for the remote shell. Windows OpenSSH
// hands the line to cmd.exe, so arguments with spaces or shell
// metacharacters are double-quoted with embedded quotes escaped.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(name))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return `""`
	}
	if !strings.ContainsAny(arg, " \t\"&|<>^%()") {
		return arg
	}
	return `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
}
