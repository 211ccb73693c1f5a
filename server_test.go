package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	mcp "github.com/Ramc26/agentic-resources"
)

type fakeToolServer struct {
	tools   []mcp.Tool
	callErr error
}

func (f fakeToolServer) ListTools(context.Context) ([]mcp.Tool, error) {
	return f.tools, nil
}

func (f fakeToolServer) CallTool(_ context.Context, params mcp.CallToolParams) (mcp.CallToolResult, error) {
	if f.callErr != nil {
		return mcp.CallToolResult{}, f.callErr
	}
	return mcp.CallToolResult{Text: "called " + params.Name}, nil
}

type fakeResourceServer struct{}

func (fakeResourceServer) ListResources(context.Context) ([]mcp.Resource, error) {
	return []mcp.Resource{{URI: "resource://greeting", Name: "greeting"}}, nil
}

func (fakeResourceServer) ReadResource(_ context.Context, params mcp.ReadResourceParams) (mcp.ReadResourceResult, error) {
	return mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{{URI: params.URI, Text: "content"}},
	}, nil
}

func request(id int64, method string, params any) mcp.JSONRPCMessage {
	msg := mcp.JSONRPCMessage{
		JSONRPC: mcp.JSONRPCVersion,
		ID:      mcp.RequestID(id),
		Method:  method,
	}
	if params != nil {
		paramsBs, _ := json.Marshal(params)
		msg.Params = paramsBs
	}
	return msg
}

func TestServerInitialize(t *testing.T) {
	srv := mcp.NewServer(mcp.Info{Name: "test", Version: "1.0"},
		mcp.WithToolServer(fakeToolServer{}),
	)

	reply := srv.Handle(context.Background(), request(1, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      mcp.Info{Name: "cli", Version: "0.1"},
	}))
	if reply == nil {
		t.Fatal("got nil reply")
	}
	if reply.Error != nil {
		t.Fatalf("initialize failed: %v", reply.Error)
	}

	var result struct {
		Capabilities mcp.ServerCapabilities `json:"capabilities"`
		ServerInfo   mcp.Info               `json:"serverInfo"`
	}
	if err := json.Unmarshal(reply.Result, &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if result.Capabilities.Tools == nil {
		t.Error("tools capability not advertised")
	}
	if result.Capabilities.Resources != nil {
		t.Error("resources capability advertised without a resource server")
	}
	if result.ServerInfo.Name != "test" {
		t.Errorf("got server name %q, want %q", result.ServerInfo.Name, "test")
	}
}

func TestServerRejectsProtocolMismatch(t *testing.T) {
	srv := mcp.NewServer(mcp.Info{Name: "test", Version: "1.0"})

	reply := srv.Handle(context.Background(), request(1, "initialize", map[string]any{
		"protocolVersion": "1999-01-01",
	}))
	if reply == nil || reply.Error == nil {
		t.Fatal("expected error reply for protocol mismatch")
	}
	if !strings.Contains(reply.Error.Message, "protocol version") {
		t.Errorf("got message %q, want protocol version complaint", reply.Error.Message)
	}
}

func TestServerDispatch(t *testing.T) {
	srv := mcp.NewServer(mcp.Info{Name: "test", Version: "1.0"},
		mcp.WithToolServer(fakeToolServer{tools: []mcp.Tool{{Name: "web_get"}}}),
		mcp.WithResourceServer(fakeResourceServer{}),
	)

	tests := []struct {
		method string
		params any
		check  func(t *testing.T, result json.RawMessage)
	}{
		{
			method: "ping",
			check:  func(t *testing.T, result json.RawMessage) {},
		},
		{
			method: "tools/list",
			check: func(t *testing.T, result json.RawMessage) {
				var r mcp.ListToolsResult
				if err := json.Unmarshal(result, &r); err != nil {
					t.Fatal(err)
				}
				if len(r.Tools) != 1 || r.Tools[0].Name != "web_get" {
					t.Errorf("got tools %v", r.Tools)
				}
			},
		},
		{
			method: "tools/call",
			params: mcp.CallToolParams{Name: "web_get"},
			check: func(t *testing.T, result json.RawMessage) {
				var r mcp.CallToolResult
				if err := json.Unmarshal(result, &r); err != nil {
					t.Fatal(err)
				}
				if r.Text != "called web_get" {
					t.Errorf("got %q", r.Text)
				}
			},
		},
		{
			method: "resources/list",
			check: func(t *testing.T, result json.RawMessage) {
				var r mcp.ListResourcesResult
				if err := json.Unmarshal(result, &r); err != nil {
					t.Fatal(err)
				}
				if len(r.Resources) != 1 {
					t.Errorf("got resources %v", r.Resources)
				}
			},
		},
		{
			method: "resources/read",
			params: mcp.ReadResourceParams{URI: "resource://greeting"},
			check: func(t *testing.T, result json.RawMessage) {
				var r mcp.ReadResourceResult
				if err := json.Unmarshal(result, &r); err != nil {
					t.Fatal(err)
				}
				if len(r.Contents) != 1 || r.Contents[0].Text != "content" {
					t.Errorf("got contents %v", r.Contents)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			reply := srv.Handle(context.Background(), request(7, tt.method, tt.params))
			if reply == nil {
				t.Fatal("got nil reply")
			}
			if reply.Error != nil {
				t.Fatalf("got error reply: %v", reply.Error)
			}
			if reply.ID != 7 {
				t.Errorf("got reply id %d, want 7", reply.ID)
			}
			tt.check(t, reply.Result)
		})
	}
}

func TestServerErrorReplies(t *testing.T) {
	srv := mcp.NewServer(mcp.Info{Name: "test", Version: "1.0"},
		mcp.WithToolServer(fakeToolServer{callErr: fmt.Errorf("tool exploded")}),
	)

	tests := []struct {
		name     string
		msg      mcp.JSONRPCMessage
		wantCode int
	}{
		{
			name:     "unknown method",
			msg:      request(1, "bogus/method", nil),
			wantCode: -32601,
		},
		{
			name:     "resources not wired",
			msg:      request(2, "resources/list", nil),
			wantCode: -32601,
		},
		{
			name: "invalid params",
			msg: mcp.JSONRPCMessage{
				JSONRPC: mcp.JSONRPCVersion,
				ID:      3,
				Method:  "tools/call",
				Params:  json.RawMessage(`"not an object"`),
			},
			wantCode: -32602,
		},
		{
			name:     "implementation failure",
			msg:      request(4, "tools/call", mcp.CallToolParams{Name: "web_get"}),
			wantCode: -32603,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := srv.Handle(context.Background(), tt.msg)
			if reply == nil || reply.Error == nil {
				t.Fatal("expected error reply")
			}
			if reply.Error.Code != tt.wantCode {
				t.Errorf("got code %d, want %d", reply.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestServerIgnoresNotifications(t *testing.T) {
	srv := mcp.NewServer(mcp.Info{Name: "test", Version: "1.0"})

	reply := srv.Handle(context.Background(), mcp.JSONRPCMessage{
		JSONRPC: mcp.JSONRPCVersion,
		Method:  "notifications/initialized",
	})
	if reply != nil {
		t.Fatalf("got reply %v for notification, want nil", reply)
	}
}
