// Package mcp exposes the guide's pages to agents over the Model Context
// Protocol.
package mcp

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/studyguide/internal/content"
)

// Server answers list, read and search tool calls over one content tree.
type Server struct {
	content content.Config
	mcp     *server.MCPServer
}

// NewServer creates an MCP server over the pages selected by cfg. Pages are
// walked per call, so edits show up without a restart.
func NewServer(cfg content.Config, version string) *Server {
	s := &Server{
		content: cfg,
		mcp:     server.NewMCPServer("studyguide", version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(listPagesTool, s.handleListPages)
	s.mcp.AddTool(readPageTool, s.handleReadPage)
	s.mcp.AddTool(searchGuideTool, s.handleSearchGuide)
	return s
}

// Serve speaks the protocol on in and out until ctx is cancelled or in is
// closed. Out carries protocol messages only; logging goes elsewhere.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}
