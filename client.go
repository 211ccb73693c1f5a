package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// ClientOption is a function that configures a client.
type ClientOption func(*Client)

// Client maintains one logical session with an MCP server reachable over an
// SSE stream. The inbound half is a long-lived GET whose frames are consumed by
// a listener goroutine; the outbound half is plain POSTs to the message
// endpoint the server announces on that stream. Responses arrive asynchronously
// on the stream and are correlated back to their requests by numeric id.
//
// A Client must be created with NewClient and connected with Connect before
// Initialize or any request method is called. All exported methods are safe for
// concurrent use; the only shared mutable state (session id, post URL, pending
// response table) lives behind a single mutex/cond pair that both the listener
// and the waiting callers use.
type Client struct {
	sseURL     string
	baseURL    *url.URL
	info       Info
	httpClient *http.Client
	logger     *slog.Logger

	connectTimeout time.Duration
	pollInterval   time.Duration
	staleAfter     time.Duration
	maxPayloadSize int

	mu   sync.Mutex
	cond *sync.Cond

	sessionID string
	postURL   string
	streaming bool
	closed    bool
	lastID    int64
	pending   map[int64]pendingResponse

	cancelStream context.CancelFunc
}

type pendingResponse struct {
	msg        JSONRPCMessage
	receivedAt time.Time
}

const (
	// Request ids are a millisecond clock value folded into this bound, bumped
	// past the previous id when the clock has not advanced.
	requestIDBound = 1<<31 - 1

	defaultConnectTimeout = 5 * time.Second
	defaultPollInterval   = 200 * time.Millisecond
	connectPollInterval   = 50 * time.Millisecond

	// Responses nobody consumed (abandoned requests) are dropped after this age.
	defaultStaleAfter = 5 * time.Minute

	defaultInitializeTimeout   = 10 * time.Second
	defaultCallToolTimeout     = 20 * time.Second
	defaultReadResourceTimeout = 10 * time.Second
)

// WithHTTPClient sets the HTTP client used for both the stream GET and the
// message POSTs. If unset, http.DefaultClient is used.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClientInfo sets the client identification sent during initialization.
func WithClientInfo(info Info) ClientOption {
	return func(c *Client) {
		c.info = info
	}
}

// WithConnectTimeout sets how long Connect waits for the endpoint frame.
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.connectTimeout = timeout
	}
}

// WithPollInterval sets the wake-up interval used while waiting for a response.
func WithPollInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// WithStaleAfter sets the age past which unconsumed responses are pruned from
// the pending table.
func WithStaleAfter(age time.Duration) ClientOption {
	return func(c *Client) {
		c.staleAfter = age
	}
}

// WithMaxPayloadSize sets the maximum size of a single stream event. Events
// exceeding the limit terminate the stream.
func WithMaxPayloadSize(size int) ClientOption {
	return func(c *Client) {
		c.maxPayloadSize = size
	}
}

// NewClient creates a client for the SSE endpoint at sseURL. Relative endpoint
// references announced by the server are resolved against baseURL. The client
// is not connected until Connect is called.
func NewClient(sseURL, baseURL string, options ...ClientOption) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	c := &Client{
		sseURL:     sseURL,
		baseURL:    base,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
		info: Info{
			Name:    "agentic-resources",
			Version: "0.1.0",
		},
		connectTimeout: defaultConnectTimeout,
		pollInterval:   defaultPollInterval,
		staleAfter:     defaultStaleAfter,
		pending:        make(map[int64]pendingResponse),
	}
	c.cond = sync.NewCond(&c.mu)

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// Connect starts the stream listener if it is not already running and blocks
// until the server announces its message endpoint or the connect timeout
// elapses. Calling Connect on an already-connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	start := !c.streaming
	if start {
		c.streaming = true
	}
	c.mu.Unlock()

	if start {
		if err := c.startStream(); err != nil {
			c.mu.Lock()
			c.streaming = false
			c.mu.Unlock()
			return err
		}
	}

	return c.awaitEndpoint(ctx)
}

// Initialize performs the protocol handshake: a synchronous initialize request
// followed by the initialized notification. It must be called after Connect
// succeeds and before any tool or resource call.
func (c *Client) Initialize(ctx context.Context) error {
	params := initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    ClientCapabilities{},
		ClientInfo:      c.info,
	}
	res, err := c.RPC(ctx, methodInitialize, params, defaultInitializeTimeout)
	if err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	if res.Error != nil {
		return fmt.Errorf("initialize failed: %w", res.Error)
	}

	return c.Notify(ctx, methodNotificationsInitialized, nil)
}

// RPC sends a request and blocks until the matching response arrives on the
// stream or the timeout elapses. Responses are matched strictly by id; no
// ordering is guaranteed between concurrently outstanding calls. It fails fast
// with ErrNoEndpoint if the message endpoint has not been discovered yet.
func (c *Client) RPC(ctx context.Context, method string, params any, timeout time.Duration) (JSONRPCMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return JSONRPCMessage{}, ErrClientClosed
	}
	postURL := c.postURL
	if postURL == "" {
		c.mu.Unlock()
		return JSONRPCMessage{}, ErrNoEndpoint
	}
	id := c.nextIDLocked()
	c.mu.Unlock()

	msg := JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  method,
	}
	if params != nil {
		paramsBs, err := json.Marshal(params)
		if err != nil {
			return JSONRPCMessage{}, fmt.Errorf("failed to marshal params: %w", err)
		}
		msg.Params = paramsBs
	}

	if err := c.post(ctx, postURL, msg); err != nil {
		return JSONRPCMessage{}, err
	}

	deadline := time.Now().Add(timeout)

	c.mu.Lock()
	defer c.mu.Unlock()

	// The table is checked before the first wait and after every wake, so a
	// response that arrived before we got here is still picked up.
	for {
		if pr, ok := c.pending[int64(id)]; ok {
			delete(c.pending, int64(id))
			return pr.msg, nil
		}
		if c.closed {
			return JSONRPCMessage{}, ErrClientClosed
		}
		if err := ctx.Err(); err != nil {
			return JSONRPCMessage{}, err
		}
		now := time.Now()
		if !now.Before(deadline) {
			return JSONRPCMessage{}, &RequestTimeoutError{Method: method, ID: id, Timeout: timeout}
		}
		c.timedWaitLocked(min(c.pollInterval, deadline.Sub(now)))
	}
}

// Notify sends a fire-and-forget notification: a request without an id, for
// which no reply is expected.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	postURL := c.postURL
	c.mu.Unlock()
	if postURL == "" {
		return ErrNoEndpoint
	}

	msg := JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		Method:  method,
	}
	if params != nil {
		paramsBs, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		msg.Params = paramsBs
	}

	return c.post(ctx, postURL, msg)
}

// CallTool invokes a named tool and returns the JSON-serialized result field.
// An application-level error reply is returned serialized as data, not as a Go
// error; only transport failures and timeouts produce errors.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	argsBs, err := json.Marshal(arguments)
	if err != nil {
		return "", fmt.Errorf("failed to marshal arguments: %w", err)
	}

	params := CallToolParams{
		Name:      name,
		Arguments: argsBs,
	}
	res, err := c.RPC(ctx, MethodToolsCall, params, defaultCallToolTimeout)
	if err != nil {
		return "", err
	}

	if res.Error != nil {
		errBs, err := json.Marshal(res.Error)
		if err != nil {
			return "", fmt.Errorf("failed to marshal error reply: %w", err)
		}
		return string(errBs), nil
	}
	if len(res.Result) == 0 {
		return "{}", nil
	}
	return string(res.Result), nil
}

// ReadResource reads a resource and flattens its contents into newline-joined
// text. Binary entries are substituted with a size annotation instead of being
// decoded. Application-level error replies are returned serialized as data.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	res, err := c.RPC(ctx, MethodResourcesRead, ReadResourceParams{URI: uri}, defaultReadResourceTimeout)
	if err != nil {
		return "", err
	}

	if res.Error != nil {
		errBs, err := json.Marshal(res.Error)
		if err != nil {
			return "", fmt.Errorf("failed to marshal error reply: %w", err)
		}
		return string(errBs), nil
	}

	var result ReadResourceResult
	if err := json.Unmarshal(res.Result, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal resource contents: %w", err)
	}

	var parts []string
	for _, ct := range result.Contents {
		switch {
		case ct.Text != "":
			parts = append(parts, ct.Text)
		case ct.Blob != "":
			parts = append(parts, fmt.Sprintf("<binary content %d base64 chars>", len(ct.Blob)))
		}
	}
	if len(parts) == 0 {
		return string(res.Result), nil
	}

	out := parts[0]
	for _, p := range parts[1:] {
		out += "\n" + p
	}
	return out, nil
}

// ReadResourceText reads a resource and returns its first non-empty text
// content, or the empty string on an application-level error reply.
func (c *Client) ReadResourceText(ctx context.Context, uri string) (string, error) {
	res, err := c.RPC(ctx, MethodResourcesRead, ReadResourceParams{URI: uri}, defaultReadResourceTimeout)
	if err != nil {
		return "", err
	}
	if res.Error != nil {
		return "", nil
	}

	var result ReadResourceResult
	if err := json.Unmarshal(res.Result, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal resource contents: %w", err)
	}
	for _, ct := range result.Contents {
		if ct.Text != "" {
			return ct.Text, nil
		}
	}
	return "", nil
}

// ListFiles reads the well-known file listing resource and parses it as a JSON
// string array. Any failure, whether transport, application error, or malformed
// payload, yields an empty list.
func (c *Client) ListFiles(ctx context.Context) []string {
	res, err := c.RPC(ctx, MethodResourcesRead, ReadResourceParams{URI: ListFilesURI}, defaultReadResourceTimeout)
	if err != nil {
		c.logger.Debug("failed to list files", "err", err)
		return nil
	}
	if res.Error != nil {
		return nil
	}

	var result ReadResourceResult
	if err := json.Unmarshal(res.Result, &result); err != nil {
		return nil
	}
	for _, ct := range result.Contents {
		if ct.Text == "" {
			continue
		}
		var names []string
		if err := json.Unmarshal([]byte(ct.Text), &names); err != nil {
			return nil
		}
		return names
	}
	return nil
}

// SessionID returns the session identifier announced by the server, or the
// empty string if none has been received yet.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Endpoint returns the absolute message endpoint URL discovered on the stream,
// or the empty string before connection.
func (c *Client) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.postURL
}

// Close tears down the stream connection and wakes any blocked callers. The
// client cannot be reused after Close.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancelStream != nil {
		c.cancelStream()
		c.cancelStream = nil
	}
	c.cond.Broadcast()
}

// startStream opens the GET half of the session and hands the body to the
// listener goroutine.
func (c *Client) startStream() error {
	streamCtx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.sseURL, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return &TransportError{URL: c.sseURL, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return &TransportError{URL: c.sseURL, StatusCode: resp.StatusCode}
	}

	c.mu.Lock()
	c.cancelStream = cancel
	c.mu.Unlock()

	go c.listen(resp.Body)

	return nil
}

func (c *Client) awaitEndpoint(ctx context.Context) error {
	deadline := time.Now().Add(c.connectTimeout)

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.postURL == "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.closed {
			return ErrClientClosed
		}
		now := time.Now()
		if !now.Before(deadline) {
			return &ConnectionTimeoutError{URL: c.sseURL, Timeout: c.connectTimeout}
		}
		c.timedWaitLocked(min(connectPollInterval, deadline.Sub(now)))
	}
	return nil
}

func (c *Client) post(ctx context.Context, postURL string, msg JSONRPCMessage) error {
	msgBs, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, bytes.NewReader(msgBs))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{URL: postURL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &TransportError{URL: postURL, StatusCode: resp.StatusCode}
	}

	return nil
}

// nextIDLocked derives a fresh request id from the millisecond clock, bumped
// past the previous id so concurrent requests in the same millisecond never
// collide. Must be called with the mutex held.
func (c *Client) nextIDLocked() RequestID {
	id := time.Now().UnixMilli() % requestIDBound
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return RequestID(id)
}

// timedWaitLocked waits on the condition variable for at most d. The timer
// broadcast guarantees the waiter wakes to re-check its predicate even if no
// state transition notified it. The callback takes the mutex first, so it
// cannot fire in the gap between arming the timer and entering Wait; by the
// time it broadcasts, the waiter has released the mutex inside Wait. Must be
// called with the mutex held.
func (c *Client) timedWaitLocked(d time.Duration) {
	t := time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cond.Broadcast()
	})
	c.cond.Wait()
	t.Stop()
}
