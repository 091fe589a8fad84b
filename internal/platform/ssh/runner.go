package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultUser        = "root"
	defaultDialTimeout = 10 * time.Second
	defaultMaxAttempts = 60
	defaultRetryDelay  = 5 * time.Second
)

// Runner implements provisioning.CommandRunner.
type Runner struct {
	dialTimeout     time.Duration
	dialPolicy      retry.Policy
	hostKeyCallback ssh.HostKeyCallback
	observer        provisioning.Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithDialTimeout sets the timeout for one connection attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.dialTimeout = d
	}
}

// WithDialPolicy sets how connection attempts are retried.
func WithDialPolicy(p retry.Policy) Option {
	return func(r *Runner) {
		r.dialPolicy = p
	}
}

// WithHostKeyCallback sets host key verification.
func WithHostKeyCallback(cb ssh.HostKeyCallback) Option {
	return func(r *Runner) {
		r.hostKeyCallback = cb
	}
}

// WithObserver sets the event observer.
func WithObserver(o provisioning.Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		dialTimeout:     defaultDialTimeout,
		dialPolicy:      retry.Policy{Interval: defaultRetryDelay, MaxAttempts: defaultMaxAttempts},
		hostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // Default for freshly created nodes
		observer:        provisioning.NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements provisioning.CommandRunner.
func (r *Runner) Run(ctx context.Context, address string, creds provisioning.Credentials, commands provisioning.Plan) error {
	if address == "" {
		return errors.New("address cannot be empty")
	}
	if len(creds.PrivateKey) == 0 {
		return errors.New("private key cannot be empty")
	}
	signer, err := ssh.ParsePrivateKey(creds.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}

	user := creds.User
	if user == "" {
		user = defaultUser
	}
	port := creds.Port
	if port == 0 {
		port = defaultPort
	}
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: r.hostKeyCallback,
		Timeout:         r.dialTimeout,
	}

	client, err := r.connect(ctx, net.JoinHostPort(address, strconv.Itoa(port)), config)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	for _, command := range commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runCommand(ctx, client, address, command); err != nil {
			return err
		}
	}
	return nil
}

// connect establishes the SSH connection, retrying while the host is unreachable.
func (r *Runner) connect(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	policy := r.dialPolicy.WithNotify(func(err error, wait time.Duration) {
		r.observer.Event(provisioning.Event{
			Type:     provisioning.EventDialRetry,
			Resource: addr,
			Message:  fmt.Sprintf("ssh not reachable yet; retrying in %v", wait),
			Fields:   map[string]string{"operation": "ssh-dial", "cause": err.Error()},
		})
	})

	client, err := retry.Value(ctx, policy, func(ctx context.Context) (*ssh.Client, error) {
		return dial(ctx, addr, config)
	}, isDialRetryable)
	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s: %w", addr, err)
	}
	return client, nil
}

// HostKeyError reports that the host key presented by a node was rejected.
type HostKeyError struct {
	Addr string
	Err  error
}

func (e *HostKeyError) Error() string {
	return fmt.Sprintf("host key for %s rejected: %v", e.Addr, e.Err)
}

func (e *HostKeyError) Unwrap() error {
	return e.Err
}

func dial(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	var hostKeyErr error
	cfg := *config
	cfg.HostKeyCallback = func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		hostKeyErr = config.HostKeyCallback(hostname, remote, key)
		return hostKeyErr
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, &cfg)
	if err != nil {
		_ = conn.Close()
		if hostKeyErr != nil {
			return nil, &HostKeyError{Addr: addr, Err: hostKeyErr}
		}
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// isDialRetryable rejects authentication and host key failures.
func isDialRetryable(err error) bool {
	var hostKeyErr *HostKeyError
	if errors.As(err, &hostKeyErr) {
		return false
	}
	return !strings.Contains(err.Error(), "unable to authenticate")
}

// runCommand executes one command in its own session.
func (r *Runner) runCommand(ctx context.Context, client *ssh.Client, address, command string) error {
	session, err := client.NewSession()
	if err != nil {
		return &provisioning.CommandExecutionError{
			Address:    address,
			Command:    command,
			ExitStatus: -1,
			Err:        fmt.Errorf("failed to create SSH session: %w", err),
		}
	}
	defer func() { _ = session.Close() }()

	var output lockedBuffer
	session.Stdout = &output
	session.Stderr = &output

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return ctx.Err()
	case err = <-done:
	}
	if err == nil {
		return nil
	}

	cmdErr := &provisioning.CommandExecutionError{
		Address:    address,
		Command:    command,
		ExitStatus: -1,
		Output:     output.String(),
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitStatus = exitErr.ExitStatus()
	} else {
		cmdErr.Err = err
	}
	return cmdErr
}

// lockedBuffer merges stdout and stderr, which the session copies concurrently.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
