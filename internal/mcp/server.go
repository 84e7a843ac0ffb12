// Package mcp provides a Model Context Protocol server for Aide.
//
// It exposes document analysis and the contact directory as MCP tools,
// and archive statistics plus recent analyses as MCP resources, over
// stdio transport (for Claude Desktop, Cursor, and similar clients).
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aide-ai/aide/internal/analyze"
	"github.com/aide-ai/aide/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store    store.Store
	Analyzer *analyze.Analyzer
	Version  string // version string for MCP server info
}

// dbMu serializes all MCP tool calls that touch the database.
// The mcp-go library dispatches handlers concurrently via goroutines.
// SQLite (even with WAL) supports only one writer at a time, and concurrent
// reads during writes can return stale results. A global mutex ensures
// correct ordering: contact adds complete before analyses see them.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all Aide tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Aide",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerAnalyzeTool(s, cfg.Analyzer, cfg.Store)
	registerContactAddTool(s, cfg.Store)
	registerContactListTool(s, cfg.Store)
	registerHistoryTool(s, cfg.Store)

	registerStatsResource(s, cfg.Store)
	registerRecentResource(s, cfg.Store)

	return s
}

// --- Tools ---

func registerAnalyzeTool(s *server.MCPServer, analyzer *analyze.Analyzer, st store.Store) {
	tool := mcp.NewTool("aide_analyze",
		mcp.WithDescription("Analyze an unstructured document: segment it, extract tasks, appointments, contacts, events and personal schedule items, detect project candidates, and summarize overall insights. Results are archived and retrievable via aide_history."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("The document text to analyze"),
		),
		mcp.WithString("title",
			mcp.Description("Optional document title, stored with the archived result"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		document, err := req.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError("document is required"), nil
		}
		if strings.TrimSpace(document) == "" {
			return mcp.NewToolResultError("document cannot be empty"), nil
		}

		title := ""
		if t, err := req.RequireString("title"); err == nil {
			title = t
		}

		// The analyzer makes its own provider calls; only archiving needs
		// the database lock.
		res := analyzer.Analyze(ctx, document, title)

		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}

		if st != nil {
			dbMu.Lock()
			saveErr := st.SaveAnalysis(ctx, &store.AnalysisRecord{
				ID:         res.ID,
				Title:      title,
				Document:   document,
				ResultJSON: string(data),
				AnalyzedAt: res.AnalyzedAt,
			})
			dbMu.Unlock()
			if saveErr != nil {
				return mcp.NewToolResultError(fmt.Sprintf("archiving result: %v", saveErr)), nil
			}
		}

		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerContactAddTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("aide_contact_add",
		mcp.WithDescription("Add a contact to the directory. Known contacts are cross-referenced during analysis: re-extracted contacts are flagged as existing and their confidence is discounted."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Contact name"),
		),
		mcp.WithString("company",
			mcp.Description("Company or organization"),
		),
		mcp.WithString("position",
			mcp.Description("Role or title"),
		),
		mcp.WithString("email",
			mcp.Description("Email address"),
		),
		mcp.WithString("phone",
			mcp.Description("Phone number"),
		),
		mcp.WithString("type",
			mcp.Description("Contact type: individual or corporate (default: individual)"),
			mcp.Enum("individual", "corporate"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		name, err := req.RequireString("name")
		if err != nil || strings.TrimSpace(name) == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		rec := &store.ContactRecord{Name: strings.TrimSpace(name)}
		if v, err := req.RequireString("company"); err == nil {
			rec.Company = v
		}
		if v, err := req.RequireString("position"); err == nil {
			rec.Position = v
		}
		if v, err := req.RequireString("email"); err == nil {
			rec.Email = v
		}
		if v, err := req.RequireString("phone"); err == nil {
			rec.Phone = v
		}
		if v, err := req.RequireString("type"); err == nil && v != "" {
			rec.Type = v
		}

		id, err := st.AddContact(ctx, rec)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("add contact error: %v", err)), nil
		}

		result := map[string]interface{}{
			"id":      id,
			"name":    rec.Name,
			"message": fmt.Sprintf("Contact %q added (id: %d)", rec.Name, id),
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerContactListTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("aide_contact_list",
		mcp.WithDescription("List contacts in the directory, ordered by name."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of contacts to return (default: 100)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		limit := 0
		if l, err := req.RequireFloat("limit"); err == nil && l > 0 {
			limit = int(l)
		}

		contacts, err := st.ListContacts(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list contacts error: %v", err)), nil
		}
		if len(contacts) == 0 {
			return mcp.NewToolResultText("No contacts in the directory. Use aide_contact_add to create one."), nil
		}

		data, _ := json.MarshalIndent(contacts, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerHistoryTool(s *server.MCPServer, st store.Store) {
	tool := mcp.NewTool("aide_history",
		mcp.WithDescription("Browse archived analyses. Without an ID, lists recent runs (newest first); with an ID, returns the full archived result."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("id",
			mcp.Description("Analysis ID to fetch. Empty = list recent analyses."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of analyses to list (default: 20)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		if id, err := req.RequireString("id"); err == nil && id != "" {
			rec, err := st.GetAnalysis(ctx, id)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("get analysis error: %v", err)), nil
			}
			if rec == nil {
				return mcp.NewToolResultError(fmt.Sprintf("analysis %q not found", id)), nil
			}
			return mcp.NewToolResultText(rec.ResultJSON), nil
		}

		limit := 0
		if l, err := req.RequireFloat("limit"); err == nil && l > 0 {
			limit = int(l)
		}

		list, err := st.ListAnalyses(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list analyses error: %v", err)), nil
		}
		if len(list) == 0 {
			return mcp.NewToolResultText("No archived analyses yet. Run aide_analyze first."), nil
		}

		data, _ := json.MarshalIndent(list, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Resources ---

func registerStatsResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"aide://stats",
		"Archive Statistics",
		mcp.WithResourceDescription("Contact and analysis counts plus database size."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := st.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting stats: %w", err)
		}

		data, _ := json.MarshalIndent(stats, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func registerRecentResource(s *server.MCPServer, st store.Store) {
	resource := mcp.NewResource(
		"aide://recent",
		"Recent Analyses",
		mcp.WithResourceDescription("The 20 most recently archived analyses."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		list, err := st.ListAnalyses(ctx, 20)
		if err != nil {
			return nil, fmt.Errorf("listing recent analyses: %w", err)
		}

		type recentAnalysis struct {
			ID         string `json:"id"`
			Title      string `json:"title"`
			AnalyzedAt string `json:"analyzed_at"`
		}
		recent := make([]recentAnalysis, 0, len(list))
		for _, a := range list {
			recent = append(recent, recentAnalysis{
				ID:         a.ID,
				Title:      a.Title,
				AnalyzedAt: a.AnalyzedAt.Format(time.RFC3339),
			})
		}

		data, _ := json.MarshalIndent(recent, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
