package mcp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/studyguide/internal/content"
	"github.com/ziadkadry99/studyguide/internal/site"
)

// handleListPages lists the guide's pages, optionally filtered by route prefix.
func (s *Server) handleListPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := content.Walk(s.content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list pages: %v", err)), nil
	}

	prefix := request.GetString("prefix", "")
	var sb strings.Builder
	n := 0
	for _, p := range pages {
		if prefix != "" && !strings.HasPrefix(p.Route, prefix) {
			continue
		}
		n++
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", p.Route, p.RelPath, p.Title))
	}
	if n == 0 {
		return mcp.NewToolResultText("No pages found."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d page(s):\n%s", n, sb.String())), nil
}

// handleReadPage returns a page's markdown source, front matter excluded.
func (s *Server) handleReadPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: page"), nil
	}

	rel, err := s.resolvePage(ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := content.Load(s.content.RootDir, rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mcp.NewToolResultError(fmt.Sprintf("No page found for %q.", ref)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read page: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n", page.Title))
	sb.WriteString(fmt.Sprintf("Route: %s\n", page.Route))
	if page.Description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", page.Description))
	}
	sb.WriteString("\n")
	sb.Write(page.Body)
	return mcp.NewToolResultText(sb.String()), nil
}

// resolvePage maps a route or a relative file path to a file path.
func (s *Server) resolvePage(ref string) (string, error) {
	if path.Ext(ref) == ".md" {
		return strings.TrimPrefix(ref, "/"), nil
	}
	pages, err := content.Walk(s.content)
	if err != nil {
		return "", fmt.Errorf("failed to list pages: %w", err)
	}
	route := ref
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	for _, p := range pages {
		if p.Route == route || p.Route == route+"/" {
			return p.RelPath, nil
		}
	}
	return "", fmt.Errorf("no page found for %q", ref)
}

// handleSearchGuide ranks pages against the query.
func (s *Server) handleSearchGuide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	pages, err := content.Walk(s.content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	hits := site.Search(site.BuildSearchIndex(pages, nil), query, limit)
	if len(hits) == 0 {
		return mcp.NewToolResultText("No results found."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(hits)), nil
}

// formatSearchResults renders hits as text for agent consumption.
func formatSearchResults(hits []site.SearchHit) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(hits)))

	for i, h := range hits {
		sb.WriteString(fmt.Sprintf("\n--- Result %d (score %d) ---\n", i+1, h.Score))
		sb.WriteString(fmt.Sprintf("Page: %s\n", h.Title))
		sb.WriteString(fmt.Sprintf("Route: %s\n", h.Route))
		if h.Summary != "" {
			sb.WriteString(fmt.Sprintf("Summary: %s\n", h.Summary))
		}
	}
	return sb.String()
}
