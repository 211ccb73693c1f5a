package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ToolServer defines the interface for managing tools in the MCP protocol.
type ToolServer interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, params CallToolParams) (CallToolResult, error)
}

// ResourceServer defines the interface for managing resources in the MCP protocol.
type ResourceServer interface {
	ListResources(ctx context.Context) ([]Resource, error)
	ReadResource(ctx context.Context, params ReadResourceParams) (ReadResourceResult, error)
}

// Server dispatches decoded client messages to the wired tool and resource
// implementations and shapes their results into JSON-RPC replies. Capabilities
// advertised during the initialize handshake are computed from what is wired.
type Server struct {
	info   Info
	logger *slog.Logger

	toolServer     ToolServer
	resourceServer ResourceServer
}

// ServerOption is a function that configures a server.
type ServerOption func(*Server)

// WithToolServer wires the tool implementation.
func WithToolServer(ts ToolServer) ServerOption {
	return func(s *Server) {
		s.toolServer = ts
	}
}

// WithResourceServer wires the resource implementation.
func WithResourceServer(rs ResourceServer) ServerOption {
	return func(s *Server) {
		s.resourceServer = rs
	}
}

// WithServerLogger sets the logger for the server.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server identified by info. At least one of WithToolServer
// and WithResourceServer should be given, or the server has nothing to serve.
func NewServer(info Info, options ...ServerOption) *Server {
	s := &Server{
		info:   info,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Handle processes one client message and returns the reply, or nil for
// notifications. It implements MessageHandler.
func (s *Server) Handle(ctx context.Context, msg JSONRPCMessage) *JSONRPCMessage {
	if msg.ID == 0 {
		s.logger.Debug("client notification", "method", msg.Method)
		return nil
	}

	switch msg.Method {
	case methodInitialize:
		return s.handleInitialize(msg)
	case methodPing:
		return resultMessage(msg.ID, struct{}{})
	case MethodToolsList:
		if s.toolServer == nil {
			return errorMessage(msg.ID, jsonRPCMethodNotFoundCode, "tools are not supported")
		}
		tools, err := s.toolServer.ListTools(ctx)
		if err != nil {
			s.logger.Error("failed to list tools", "err", err)
			return errorMessage(msg.ID, jsonRPCInternalErrorCode, err.Error())
		}
		if tools == nil {
			tools = []Tool{}
		}
		return resultMessage(msg.ID, ListToolsResult{Tools: tools})
	case MethodToolsCall:
		if s.toolServer == nil {
			return errorMessage(msg.ID, jsonRPCMethodNotFoundCode, "tools are not supported")
		}
		var params CallToolParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return errorMessage(msg.ID, jsonRPCInvalidParamsCode, fmt.Sprintf("invalid tools/call params: %v", err))
		}
		result, err := s.toolServer.CallTool(ctx, params)
		if err != nil {
			s.logger.Error("tool call failed", "tool", params.Name, "err", err)
			return errorMessage(msg.ID, jsonRPCInternalErrorCode, err.Error())
		}
		return resultMessage(msg.ID, result)
	case MethodResourcesList:
		if s.resourceServer == nil {
			return errorMessage(msg.ID, jsonRPCMethodNotFoundCode, "resources are not supported")
		}
		resources, err := s.resourceServer.ListResources(ctx)
		if err != nil {
			s.logger.Error("failed to list resources", "err", err)
			return errorMessage(msg.ID, jsonRPCInternalErrorCode, err.Error())
		}
		if resources == nil {
			resources = []Resource{}
		}
		return resultMessage(msg.ID, ListResourcesResult{Resources: resources})
	case MethodResourcesRead:
		if s.resourceServer == nil {
			return errorMessage(msg.ID, jsonRPCMethodNotFoundCode, "resources are not supported")
		}
		var params ReadResourceParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return errorMessage(msg.ID, jsonRPCInvalidParamsCode, fmt.Sprintf("invalid resources/read params: %v", err))
		}
		result, err := s.resourceServer.ReadResource(ctx, params)
		if err != nil {
			s.logger.Error("resource read failed", "uri", params.URI, "err", err)
			return errorMessage(msg.ID, jsonRPCInternalErrorCode, err.Error())
		}
		return resultMessage(msg.ID, result)
	default:
		return errorMessage(msg.ID, jsonRPCMethodNotFoundCode, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (s *Server) handleInitialize(msg JSONRPCMessage) *JSONRPCMessage {
	var params initializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return errorMessage(msg.ID, jsonRPCInvalidParamsCode, fmt.Sprintf("invalid initialize params: %v", err))
	}
	if params.ProtocolVersion != protocolVersion {
		return errorMessage(msg.ID, jsonRPCInvalidParamsCode,
			fmt.Sprintf("unsupported protocol version %q, want %q", params.ProtocolVersion, protocolVersion))
	}

	caps := ServerCapabilities{}
	if s.toolServer != nil {
		caps.Tools = &ToolsCapability{}
	}
	if s.resourceServer != nil {
		caps.Resources = &ResourcesCapability{}
	}

	return resultMessage(msg.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    caps,
		ServerInfo:      s.info,
	})
}

func resultMessage(id RequestID, result any) *JSONRPCMessage {
	resultBs, err := json.Marshal(result)
	if err != nil {
		return errorMessage(id, jsonRPCInternalErrorCode, fmt.Sprintf("failed to marshal result: %v", err))
	}
	return &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  resultBs,
	}
}

func errorMessage(id RequestID, code int, message string) *JSONRPCMessage {
	return &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}
}
