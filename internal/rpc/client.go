// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/tombee/seqbridge/internal/log"
	bridgeerrors "github.com/tombee/seqbridge/pkg/errors"
)

// DefaultSocketPath is where seqd listens by default.
const DefaultSocketPath = "/tmp/seqd.sock"

// Client is a connection to seqd. It is safe for concurrent use; calls are
// serialized.
type Client struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader

	// broken is set once the stream can no longer be trusted to be aligned
	// on a line boundary.
	broken error
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each call's write and read. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for trace-level call logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Dial connects to the seqd socket at path.
func Dial(ctx context.Context, path string, opts ...Option) (*Client, error) {
	if path == "" {
		path = DefaultSocketPath
	}

	c := &Client{
		path:   path,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var d net.Dialer
	if c.timeout > 0 {
		d.Timeout = c.timeout
	}
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to seqd at %s: %w", path, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return c, nil
}

// SocketPath returns the path the client is connected to.
func (c *Client) SocketPath() string {
	return c.path
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken == nil {
		c.broken = net.ErrClosed
	}
	return c.conn.Close()
}

// Call sends req and returns seqd's response, whether or not it reports
// success.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", req.Op, err)
	}
	payload = append(payload, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, fmt.Errorf("seqd connection unusable: %w", c.broken)
	}

	start := time.Now()
	line, err := c.exchange(ctx, payload)
	if err != nil {
		c.broken = err
		return nil, c.callError(ctx, req.Op, err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode seqd %s response: %w", req.Op, err)
	}

	log.Trace(c.logger, "seqd call",
		slog.String(log.OpKey, req.Op),
		slog.Bool("ok", resp.OK),
		slog.Int64(log.DurationKey, time.Since(start).Milliseconds()),
	)
	return &resp, nil
}

// CallOK sends req and returns the result, or a *RemoteError when seqd
// reports failure. A missing result is returned as an empty object.
func (c *Client) CallOK(ctx context.Context, req Request) (json.RawMessage, error) {
	resp, err := c.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, remoteError(resp)
	}
	return resp.ResultOrEmpty(), nil
}

func (c *Client) exchange(ctx context.Context, payload []byte) ([]byte, error) {
	deadline := time.Time{}
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	// Unblock I/O when the context is cancelled.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := c.conn.Write(payload); err != nil {
		return nil, err
	}
	return readLine(c.reader)
}

func (c *Client) callError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("seqd %s: %w", op, ctxErr)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &bridgeerrors.TimeoutError{
			Operation: "seqd call " + op,
			Duration:  c.timeout,
			Cause:     err,
		}
	}
	return err
}

// readLine reads one response line without its terminator. A stream that
// ends after some bytes but before '\n' yields those bytes.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)

		switch {
		case err == nil:
			line = line[:len(line)-1]
			if len(line) > MaxResponseBytes {
				return nil, &ProtocolError{Reason: "response exceeded max size"}
			}
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			if len(line) > MaxResponseBytes {
				return nil, &ProtocolError{Reason: "response exceeded max size"}
			}
		case errors.Is(err, io.EOF):
			if len(line) == 0 {
				return nil, &ProtocolError{Reason: "unexpected EOF while waiting for response"}
			}
			return line, nil
		default:
			return nil, err
		}
	}
}
