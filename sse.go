package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/tmaxmax/go-sse"
)

// MessageHandler consumes one client message and returns the reply to stream
// back, or nil when the message needs no reply (notifications).
type MessageHandler interface {
	Handle(ctx context.Context, msg JSONRPCMessage) *JSONRPCMessage
}

// SSEServer is the HTTP-facing half of a server: it upgrades GET requests to
// event streams, announces a per-session message endpoint on each stream, and
// accepts client messages via POST on that endpoint. Replies produced by the
// handler travel back as "message" frames on the originating stream.
//
// Its HandleSSE and HandleMessage http.Handlers are framework-agnostic and can
// be mounted on any mux.
type SSEServer struct {
	messageURL string
	handler    MessageHandler
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*ServerSession
	shutdown bool
}

// SSEServerOption is a function that configures an SSEServer.
type SSEServerOption func(*SSEServer)

// ServerSession is one connected client stream. Sends are serialized under a
// per-session mutex so concurrent handler replies never interleave frames.
type ServerSession struct {
	id     string
	logger *slog.Logger

	mu     sync.Mutex
	sess   *sse.Session
	closed bool

	done chan struct{}
}

// WithSSEServerLogger sets the logger for the SSE server.
func WithSSEServerLogger(logger *slog.Logger) SSEServerOption {
	return func(s *SSEServer) {
		s.logger = logger
	}
}

// NewSSEServer creates an SSE server that directs client messages to handler.
// messageURL is the URL announced to clients for their POSTs; the per-session
// id is appended to it as a query parameter.
func NewSSEServer(messageURL string, handler MessageHandler, options ...SSEServerOption) *SSEServer {
	s := &SSEServer{
		messageURL: messageURL,
		handler:    handler,
		logger:     slog.Default(),
		sessions:   make(map[string]*ServerSession),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// HandleSSE returns an http.Handler for establishing SSE connections over GET.
// It upgrades the connection, assigns a session id, announces the message
// endpoint, and keeps the connection open until the client disconnects or the
// server shuts down.
func (s *SSEServer) HandleSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sse.Upgrade(w, r)
		if err != nil {
			s.logger.Error("failed to upgrade session", "err", err)
			http.Error(w, fmt.Sprintf("failed to upgrade session: %v", err), http.StatusInternalServerError)
			return
		}

		session := &ServerSession{
			id:     uuid.New().String(),
			logger: s.logger,
			sess:   sess,
			done:   make(chan struct{}),
		}

		s.mu.Lock()
		if s.shutdown {
			s.mu.Unlock()
			return
		}
		s.sessions[session.id] = session
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			delete(s.sessions, session.id)
			s.mu.Unlock()
			session.close()
		}()

		endpoint := fmt.Sprintf("%s?session_id=%s", s.messageURL, session.id)
		if err := session.sendFrame(eventTypeEndpoint, endpoint); err != nil {
			s.logger.Error("failed to announce endpoint", "err", err)
			return
		}

		select {
		case <-r.Context().Done():
		case <-session.done:
		}
	})
}

// HandleMessage returns an http.Handler for processing client messages sent
// via POST. It expects a session_id query parameter and a JSON-encoded message
// body, acknowledges with 202 Accepted, and dispatches to the handler
// asynchronously; the reply, if any, is sent on the session's stream.
func (s *SSEServer) HandleMessage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessID := r.URL.Query().Get("session_id")
		if sessID == "" {
			http.Error(w, "missing session_id query parameter", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		session, ok := s.sessions[sessID]
		s.mu.Unlock()
		if !ok {
			http.Error(w, "unknown session", http.StatusBadRequest)
			return
		}

		var msg JSONRPCMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			s.logger.Error("failed to decode message", "err", err)
			http.Error(w, fmt.Sprintf("invalid message: %v", err), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusAccepted)

		go func() {
			reply := s.handler.Handle(context.Background(), msg)
			if reply == nil {
				return
			}
			if err := session.Send(*reply); err != nil {
				s.logger.Error("failed to send reply", "sessionID", session.id, "err", err)
			}
		}()
	})
}

// Shutdown closes all active sessions. New connections arriving afterwards are
// rejected.
func (s *SSEServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	sessions := make([]*ServerSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}

	return ctx.Err()
}

// Send streams a message frame to the connected client.
func (ss *ServerSession) Send(msg JSONRPCMessage) error {
	msgBs, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return ss.sendFrame(eventTypeMessage, string(msgBs))
}

// ID returns the session identifier announced to the client.
func (ss *ServerSession) ID() string {
	return ss.id
}

func (ss *ServerSession) sendFrame(eventType, data string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return fmt.Errorf("session %s is closed", ss.id)
	}

	msg := sse.Message{
		Type: sse.Type(eventType),
	}
	msg.AppendData(data)

	if err := ss.sess.Send(&msg); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}
	if err := ss.sess.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}
	return nil
}

func (ss *ServerSession) close() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return
	}
	ss.closed = true
	close(ss.done)
}
