// Package mcp exposes the summarizer to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes summarization tools.
type Server struct {
	summarizer *summarizer.Summarizer
	settings   settings.Summarization
	mcp        *server.MCPServer
}

// NewServer creates a new MCP server. cfg supplies the length percentages,
// the default mode and the input word limit.
func NewServer(s *summarizer.Summarizer, cfg settings.Summarization) *Server {
	srv := &Server{
		summarizer: s,
		settings:   cfg,
	}

	srv.mcp = server.NewMCPServer(
		"smartsum",
		Version,
		server.WithToolCapabilities(false),
	)

	srv.registerTools()

	return srv
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(summarizeTextTool, s.handleSummarizeText)
	s.mcp.AddTool(countWordsTool, s.handleCountWords)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
