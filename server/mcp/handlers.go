package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/czapol/multi-agent-playground/ai"
	agent "github.com/czapol/multi-agent-playground/ai/agents"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	service *ai.Service
}

// AskResult is the JSON payload of the ask tool.
type AskResult struct {
	SessionID   string             `json:"session_id"`
	State       agent.State        `json:"state"`
	Capability  routing.Capability `json:"capability"`
	Message     string             `json:"message"`
	FailureKind string             `json:"failure_kind,omitempty"`
	Decisions   []routing.Decision `json:"decisions"`
}

func sessionID(request mcp.CallToolRequest) string {
	if id := request.GetString("session_id", ""); id != "" {
		return id
	}
	return DefaultSessionID
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// RouteQuery handles the route_query tool
func (h *Handlers) RouteQuery(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	// Unknown sessions route against an empty context without being created.
	sess, ok := h.service.Sessions.Get(sessionID(request))
	if !ok {
		sess = agent.NewSession(sessionID(request))
	}
	return jsonResult(h.service.Orchestrator.Preview(sess, query))
}

// Ask handles the ask tool. A failed backend is reported in the payload,
// not as a tool error; only a busy session is.
func (h *Handlers) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	res, err := h.service.Ask(ctx, sessionID(request), query)
	if err != nil {
		if errors.Is(err, agent.ErrSessionBusy) {
			return mcp.NewToolResultError("session is busy with another query, retry when it completes"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return jsonResult(AskResult{
		SessionID:   res.SessionID,
		State:       res.State,
		Capability:  res.Capability,
		Message:     res.Message,
		FailureKind: string(res.FailureKind()),
		Decisions:   res.Decisions,
	})
}

// DecisionLog handles the decision_log tool
func (h *Handlers) DecisionLog(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := sessionID(request)
	sess, ok := h.service.Sessions.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
	}
	since := request.GetInt("since", 0)
	decisions := sess.Log().Since(since)
	if decisions == nil {
		decisions = []routing.Decision{}
	}
	return jsonResult(decisions)
}

// ResetSession handles the reset_session tool
func (h *Handlers) ResetSession(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := sessionID(request)
	sess, ok := h.service.Sessions.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
	}
	if err := sess.Reset(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("session %s reset", id)), nil
}
