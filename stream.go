package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/tmaxmax/go-sse"
)

// listen consumes the inbound event stream until it errors, ends, or the
// client is closed. It is the only writer of sessionID, postURL, and the
// pending table besides RPC's consuming delete.
func (c *Client) listen(body io.ReadCloser) {
	defer func() {
		body.Close()
		c.mu.Lock()
		c.streaming = false
		if c.cancelStream != nil {
			c.cancelStream()
			c.cancelStream = nil
		}
		c.cond.Broadcast()
		c.mu.Unlock()
	}()

	var readCfg *sse.ReadConfig
	if c.maxPayloadSize > 0 {
		readCfg = &sse.ReadConfig{
			MaxEventSize: c.maxPayloadSize,
		}
	}

	for ev, err := range sse.Read(body, readCfg) {
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
				c.logger.Error("failed to read event stream", "err", err)
			}
			return
		}
		// A frame missing its type or payload is incomplete; skip it.
		if ev.Type == "" || ev.Data == "" {
			continue
		}

		switch ev.Type {
		case eventTypeEndpoint:
			c.handleEndpoint(ev.Data)
		case eventTypeSessionID, eventTypeMCPSessionID, eventTypeMCPSessionIDAlt:
			c.mu.Lock()
			c.sessionID = strings.TrimSpace(ev.Data)
			c.mu.Unlock()
		case eventTypeMessage:
			c.handleMessage(ev.Data)
		default:
			c.logger.Debug("unhandled stream event", "type", ev.Type)
		}
	}
}

// handleEndpoint resolves the announced endpoint reference against the base
// URL, adopts the session id it carries, and wakes everyone waiting to send.
func (c *Client) handleEndpoint(data string) {
	ref, err := url.Parse(strings.TrimSpace(data))
	if err != nil {
		c.logger.Error("invalid endpoint reference", "err", err)
		return
	}
	endpoint := c.baseURL.ResolveReference(ref)

	c.mu.Lock()
	if sid := endpoint.Query().Get("session_id"); sid != "" {
		c.sessionID = sid
	}
	c.postURL = endpoint.String()
	c.cond.Broadcast()
	c.mu.Unlock()

	c.logger.Debug("message endpoint discovered", "endpoint", endpoint.String())
}

// handleMessage records a response frame in the pending table, keyed by its
// id, and wakes the waiters. Id-less frames are server notifications and are
// dropped after logging. Storing also prunes entries nobody ever consumed.
func (c *Client) handleMessage(data string) {
	var msg JSONRPCMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		c.logger.Warn("malformed message on stream", "err", err)
		return
	}
	if msg.ID == 0 {
		c.logger.Debug("server notification", "method", msg.Method)
		return
	}

	now := time.Now()

	c.mu.Lock()
	c.pruneStaleLocked(now)
	c.pending[int64(msg.ID)] = pendingResponse{
		msg:        msg,
		receivedAt: now,
	}
	c.cond.Broadcast()
	c.mu.Unlock()
}

// pruneStaleLocked drops responses older than staleAfter, so abandoned
// requests cannot grow the table without bound. Must be called with the mutex
// held.
func (c *Client) pruneStaleLocked(now time.Time) {
	for id, pr := range c.pending {
		if now.Sub(pr.receivedAt) > c.staleAfter {
			delete(c.pending, id)
		}
	}
}
