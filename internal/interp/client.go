package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultPort = 4444

// Config describes one bridge connection. A zero Host defaults to the local
// hostname, matching the interpreter service's usual colocation.
type Config struct {
	Host string
	Port int

	// Name, when set, initializes a named remote session synchronously
	// before Connect returns. Embedded newlines are stripped.
	Name string

	// Mirror receives every non-terminal output chunk as it arrives,
	// giving a live transcript before Wait returns. Defaults to stdout.
	Mirror io.Writer

	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.Host == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.Host = host
		} else {
			cfg.Host = "localhost"
		}
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Mirror == nil {
		cfg.Mirror = os.Stdout
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return cfg
}

// Client owns the single long-lived socket to the remote interpreter. A
// communication failure is fatal to the Client; callers retry by building a
// new one.
type Client struct {
	conn   net.Conn
	mirror io.Writer

	mu     sync.Mutex
	queue  []*Execution // head is the submission currently being drained
	closed bool
	broken error
}

// Connect dials the interpreter service, reads the mandatory greeting, and
// starts the dispatcher. A greeting carrying the refusal token fails with
// ErrRefused and is never retried.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("interp: connect %s: %w", addr, err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(cfg.HandshakeTimeout))
	greeting := make([]byte, readChunkSize)
	n, err := conn.Read(greeting)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("interp: greeting from %s: %w", addr, err)
	}
	if strings.Contains(string(greeting[:n]), refusalToken) {
		_ = conn.Close()
		return nil, fmt.Errorf("%w by %s", ErrRefused, addr)
	}
	_ = conn.SetReadDeadline(time.Time{})

	c := &Client{conn: conn, mirror: cfg.Mirror}
	go c.readLoop()
	log.Info().Str("addr", addr).Msg("connected to remote interpreter")

	if cfg.Name != "" {
		name := strings.ReplaceAll(cfg.Name, "\n", "")
		if _, err := c.SubmitSync(ctx, "initializeInterpreter "+name); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("interp: initialize session %q: %w", name, err)
		}
	}
	return c, nil
}

// Close shuts the socket down and fails any submissions still in flight.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// SubmitAsync frames and sends code immediately and returns the execution
// future without waiting for output.
func (c *Client) SubmitAsync(code string) (*Execution, error) {
	exec := newExecution(uuid.New().String())

	// Enqueue and write under one lock so queue order always matches the
	// order submissions hit the wire.
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.broken != nil {
		err := c.broken
		c.mu.Unlock()
		return nil, err
	}
	c.queue = append(c.queue, exec)
	_, err := c.conn.Write(encodeSubmission(exec.id, code))
	if err != nil {
		c.queue = c.queue[:len(c.queue)-1]
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrCommunication, err)
	}
	c.mu.Unlock()

	log.Debug().Str("id", exec.id).Int("bytes", len(code)).Msg("submitted content")
	return exec, nil
}

// SubmitSync submits code and blocks until its output is ready.
func (c *Client) SubmitSync(ctx context.Context, code string) (Result, error) {
	exec, err := c.SubmitAsync(code)
	if err != nil {
		return Result{}, err
	}
	return exec.Wait(ctx)
}

// RunScriptAsync submits the contents of the script file at path.
func (c *Client) RunScriptAsync(path string) (*Execution, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("interp: read script: %w", err)
	}
	return c.SubmitAsync(string(content))
}

// RunScriptSync drains each setup command in order before the script is
// submitted; the shared socket cannot safely interleave two in-flight
// submissions' transcripts, so each one completes fully first.
func (c *Client) RunScriptSync(ctx context.Context, path string, setup []string, verbose bool) (Result, error) {
	if verbose && len(setup) > 0 {
		log.Info().Str("script", path).Int("commands", len(setup)).Msg("executing setup commands")
	}
	for _, command := range setup {
		if verbose {
			log.Info().Str("command", command).Msg("setup")
		}
		if _, err := c.SubmitSync(ctx, command); err != nil {
			return Result{}, err
		}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("interp: read script: %w", err)
	}
	if verbose {
		log.Info().Str("script", path).Msg("executing script")
	}
	return c.SubmitSync(ctx, string(content))
}

// readLoop is the dispatcher: the only reader of the shared socket. Chunks
// are attributed to the oldest unfinished submission until its completion
// marker appears. The marker-bearing chunk is discarded outright, so text
// the remote emits after the marker in the same chunk never reaches the
// accumulated output.
func (c *Client) readLoop() {
	buf := make([]byte, readChunkSize)
	var tail string // carry so a marker split across two chunks still matches
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			c.fail(err)
			return
		}
		chunk := string(buf[:n])

		head := c.head()
		if head == nil {
			// Output with nothing in flight has no owner. Mirror it so
			// the transcript stays complete, but drop it otherwise.
			c.mirrorChunk(chunk)
			tail = ""
			continue
		}

		head.captureFatal(chunk)

		marker := completionMarker(head.id)
		if strings.Contains(tail+chunk, marker) {
			c.popHead()
			head.complete(nil)
			log.Debug().Str("id", head.id).Msg("execution done")
			tail = ""
			continue
		}

		head.appendOutput(chunk)
		c.mirrorChunk(chunk)

		combined := tail + chunk
		if keep := len(marker) - 1; len(combined) > keep {
			combined = combined[len(combined)-keep:]
		}
		tail = combined
	}
}

func (c *Client) mirrorChunk(chunk string) {
	if c.mirror != nil {
		_, _ = io.WriteString(c.mirror, chunk)
	}
}

func (c *Client) head() *Execution {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	return c.queue[0]
}

func (c *Client) popHead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) > 0 {
		c.queue = c.queue[1:]
	}
}

// fail breaks the Client permanently and completes every queued submission
// with the same error. There is no reconnect; nobody downstream is
// positioned to recover a half-read stream.
func (c *Client) fail(cause error) {
	c.mu.Lock()
	failure := c.broken
	if failure == nil {
		if c.closed || errors.Is(cause, net.ErrClosed) {
			failure = ErrClosed
		} else {
			failure = fmt.Errorf("%w: %v", ErrCommunication, cause)
		}
		c.broken = failure
	}
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	if !errors.Is(failure, ErrClosed) {
		log.Error().Err(failure).Msg("interpreter connection failed")
	}
	for _, exec := range pending {
		exec.complete(failure)
	}
}
