// Package mcp implements a Model Context Protocol session harness over
// Server-Sent Events.
//
// The client half (Client) maintains one logical session: a long-lived GET
// stream carries endpoint announcements and response frames inbound, while
// JSON-RPC 2.0 requests go out as plain POSTs to the endpoint the server
// announced. Responses arrive asynchronously and are correlated back to their
// requests by numeric id.
//
// The server half (SSEServer, Server) mirrors the transport: it upgrades GET
// requests to event streams, accepts messages via POST, and dispatches them to
// pluggable ToolServer and ResourceServer implementations.
package mcp
