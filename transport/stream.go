package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
)

// Stream multiplexes requests over a newline delimited JSON stream: a TCP or
// TLS socket, or the stdin/stdout pipes of a child process.
type Stream struct {
	*multiplexed
	target string
}

var _ Transport = (*Stream)(nil)

func tcpFactory(cfg Config) (Transport, error) {
	return NewTCP(cfg)
}

func tlsFactory(cfg Config) (Transport, error) {
	return NewTLS(cfg)
}

func stdioFactory(cfg Config) (Transport, error) {
	return NewStdio(cfg)
}

// NewTCP builds a transport over a plain TCP connection.
func NewTCP(cfg Config) (*Stream, error) {
	addr, err := streamAddress(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.logger()
	dial := func(ctx context.Context) (frameConn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return newStreamConn(conn, logger), nil
	}
	return &Stream{multiplexed: newMultiplexed("tcp", cfg, dial), target: addr}, nil
}

// NewTLS builds a transport over a TLS connection.
func NewTLS(cfg Config) (*Stream, error) {
	addr, err := streamAddress(cfg)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsCfg := &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}
	logger := cfg.logger()
	dial := func(ctx context.Context) (frameConn, error) {
		d := tls.Dialer{Config: tlsCfg}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return newStreamConn(conn, logger), nil
	}
	return &Stream{multiplexed: newMultiplexed("tls", cfg, dial), target: addr}, nil
}

// NewStdio builds a transport that spawns cfg.Command on the first request
// and speaks JSON-RPC over its stdin and stdout.
func NewStdio(cfg Config) (*Stream, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("stdio transport requires command", errors.CategoryBadInput).
			WithTextCode(ErrCodeConfiguration)
	}
	logger := cfg.logger()
	dial := func(context.Context) (frameConn, error) {
		// the child outlives the request that spawned it, so it is not bound to ctx
		cmd := exec.Command(cfg.Command, cfg.Args...)
		cmd.Dir = cfg.Dir
		if len(cfg.Env) > 0 {
			cmd.Env = append(os.Environ(), cfg.Env...)
		}
		cmd.Stderr = os.Stderr

		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		logger.Debug("stdio transport started process", "command", cfg.Command, "pid", cmd.Process.Pid)
		return newStreamConn(&processPipe{cmd: cmd, stdin: stdin, stdout: stdout}, logger), nil
	}
	return &Stream{multiplexed: newMultiplexed("stdio", cfg, dial), target: cfg.Command}, nil
}

// Target returns the dialed address or the spawned command.
func (t *Stream) Target() string {
	return t.target
}

func streamAddress(cfg Config) (string, error) {
	if cfg.URL != "" {
		// accept tcp://host:port style urls as well as bare host:port
		addr := cfg.URL
		if i := strings.Index(addr, "://"); i >= 0 {
			addr = addr[i+3:]
		}
		addr = strings.TrimSuffix(addr, "/")
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return "", errors.Wrap(err, errors.CategoryBadInput, "invalid stream address").
				WithTextCode(ErrCodeConfiguration)
		}
		return addr, nil
	}
	if cfg.Host == "" || cfg.Port == 0 {
		return "", errors.New(cfg.Kind+" transport requires url or host and port", errors.CategoryBadInput).
			WithTextCode(ErrCodeConfiguration)
	}
	return cfg.Address(), nil
}

type processPipe struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	once   sync.Once
}

func (p *processPipe) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

func (p *processPipe) Write(b []byte) (int, error) {
	return p.stdin.Write(b)
}

func (p *processPipe) Close() error {
	var err error
	p.once.Do(func() {
		_ = p.stdin.Close()
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		err = p.cmd.Wait()
		if _, exited := err.(*exec.ExitError); exited {
			err = nil
		}
	})
	return err
}
