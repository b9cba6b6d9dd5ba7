// Package mcpserver exposes exported sessions to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/sentiscribe/internal/db"
	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/sentiment"
)

const sessionIDArg = "session_id"

type sessionView struct {
	ID         string `json:"id"`
	StartedAt  string `json:"startedAt"`
	EndedAt    string `json:"endedAt"`
	Utterances int    `json:"utterances"`
}

type utteranceView struct {
	Seq          int     `json:"seq"`
	Text         string  `json:"text"`
	Sentiment    string  `json:"sentiment"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
	Timestamp    string  `json:"timestamp"`
}

type classificationView struct {
	Sentiment    string  `json:"sentiment"`
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// Handlers serves tool calls against a session store. Classifier may be nil,
// in which case classify_text is not registered.
type Handlers struct {
	Store      *db.Store
	Classifier sentiment.Classifier
}

// New builds an MCP server with every tool registered.
func New(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer("sentiscribe", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("latest_session",
		mcp.WithDescription("Return the most recently exported listening session."),
	), h.LatestSession)

	s.AddTool(mcp.NewTool("session_utterances",
		mcp.WithDescription("List the classified utterances of a session in order."),
		mcp.WithString(sessionIDArg, mcp.Description("Session ID. Defaults to the latest session.")),
	), h.SessionUtterances)

	s.AddTool(mcp.NewTool("session_tally",
		mcp.WithDescription("Count Positive, Negative and Neutral utterances in a session."),
		mcp.WithString(sessionIDArg, mcp.Description("Session ID. Defaults to the latest session.")),
	), h.SessionTally)

	if h.Classifier != nil {
		s.AddTool(mcp.NewTool("classify_text",
			mcp.WithDescription("Score a piece of text with the configured sentiment service."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to classify.")),
		), h.ClassifyText)
	}
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// LatestSession handles the latest_session tool.
func (h *Handlers) LatestSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.Store.LatestSession()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sess == nil {
		return mcp.NewToolResultText("No sessions recorded."), nil
	}
	return jsonResult(viewSession(sess))
}

// SessionUtterances handles the session_utterances tool.
func (h *Handlers) SessionUtterances(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := h.resolveSession(req)
	if errResult != nil {
		return errResult, nil
	}
	rows, err := h.Store.UtterancesForSession(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]utteranceView, 0, len(rows))
	for _, u := range rows {
		out = append(out, utteranceView{
			Seq:          u.SequenceNumber,
			Text:         u.Text,
			Sentiment:    string(u.Sentiment),
			Polarity:     u.Polarity,
			Subjectivity: u.Subjectivity,
			Timestamp:    u.Timestamp.Format(ledger.TimestampLayout),
		})
	}
	return jsonResult(out)
}

// SessionTally handles the session_tally tool.
func (h *Handlers) SessionTally(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := h.resolveSession(req)
	if errResult != nil {
		return errResult, nil
	}
	counts, err := h.Store.Tally(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make(map[string]int, len(counts))
	for label, n := range counts {
		out[string(label)] = n
	}
	return jsonResult(out)
}

// ClassifyText handles the classify_text tool.
func (h *Handlers) ClassifyText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := sentiment.Classify(ctx, h.Classifier, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if c.IsNoInput() {
		return mcp.NewToolResultError("text is empty"), nil
	}
	return jsonResult(classificationView{
		Sentiment:    string(c.Label),
		Polarity:     c.Polarity,
		Subjectivity: c.Subjectivity,
	})
}

// resolveSession returns the requested session ID, falling back to the
// latest session when none is given.
func (h *Handlers) resolveSession(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	if id := req.GetString(sessionIDArg, ""); id != "" {
		return id, nil
	}
	sess, err := h.Store.LatestSession()
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	if sess == nil {
		return "", mcp.NewToolResultError("no sessions recorded")
	}
	return sess.ID, nil
}

func viewSession(s *db.Session) sessionView {
	return sessionView{
		ID:         s.ID,
		StartedAt:  s.StartedAt.Format(time.RFC3339),
		EndedAt:    s.EndedAt.Format(time.RFC3339),
		Utterances: s.Utterances,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
