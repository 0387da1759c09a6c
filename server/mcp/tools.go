// Package mcp exposes the router as Model Context Protocol tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/czapol/multi-agent-playground/ai"
	"github.com/czapol/multi-agent-playground/internal/version"
)

// DefaultSessionID is used when a tool call names no session.
const DefaultSessionID = "mcp"

// NewServer creates an MCP server with every tool registered.
func NewServer(svc *ai.Service) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(
		"multi-agent-playground",
		version.String(),
	)
	return server, RegisterTools(server, svc)
}

var sessionIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Conversation session id (default: \"" + DefaultSessionID + "\")",
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, svc *ai.Service) *Handlers {
	handlers := &Handlers{service: svc}

	// 1. route_query - dry-run routing, no backend call
	server.AddTool(mcp.Tool{
		Name:        "route_query",
		Description: "Show which provider family and capability a query would be routed to, without calling any backend or recording decisions.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Query text to route",
				},
				"session_id": sessionIDProperty,
			},
			Required: []string{"query"},
		},
	}, handlers.RouteQuery)

	// 2. ask - route, dispatch and record one query
	server.AddTool(mcp.Tool{
		Name:        "ask",
		Description: "Route a query to the best backend (general, file search, web search, secondary or offline provider) and return its answer.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Query text",
				},
				"session_id": sessionIDProperty,
			},
			Required: []string{"query"},
		},
	}, handlers.Ask)

	// 3. decision_log - list routing decisions of a session
	server.AddTool(mcp.Tool{
		Name:        "decision_log",
		Description: "List the routing decisions recorded for a session, oldest first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
				"since": map[string]interface{}{
					"type":        "number",
					"description": "Only return decisions after this sequence number (default: 0)",
					"default":     0,
				},
			},
		},
	}, handlers.DecisionLog)

	// 4. reset_session - start a new conversation
	server.AddTool(mcp.Tool{
		Name:        "reset_session",
		Description: "Clear a session's conversation context and decision log.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty,
			},
		},
	}, handlers.ResetSession)

	return handlers
}
