// Package mcpserver exposes repository-to-podcast/diagram generation as
// MCP tools, for clients that talk the Model Context Protocol instead of
// plain REST (Claude Desktop, Claude Code, other MCP hosts). It is a
// second transport over the same podcast.Builder/diagram.Pipeline the
// httpapi package serves over REST+SSE.
package mcpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"repocast/internal/diagram"
	"repocast/internal/ingest"
	"repocast/internal/podcast"
)

// Config holds server configuration.
type Config struct {
	Port     int
	MaxTasks int
}

// DefaultConfig returns the default Config: port 8000 and at most 5 tasks.
func DefaultConfig() Config {
	return Config{
		Port:     8000,
		MaxTasks: 5,
	}
}

// Server is the MCP server for repository analysis and podcast generation.
type Server struct {
	cfg      Config
	mcp      *server.MCPServer
	handlers *Handlers
	log      *slog.Logger
}

// New creates and configures the MCP server. builder and diagramPipeline
// must already be wired against a storage backend and LLM/TTS providers —
// this package only adds the MCP tool-call transport on top.
func New(cfg Config, ingester *ingest.Ingester, builder *podcast.Builder, diagramPipeline *diagram.Pipeline, modelContextWindow int, logger *slog.Logger) *Server {
	store := NewStore()
	taskMgr := NewTaskManager(builder, store, cfg.MaxTasks, logger)
	handlers := NewHandlers(taskMgr, store, ingester, diagramPipeline, builder, modelContextWindow, logger)

	mcpServer := server.NewMCPServer(
		"repocast",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	tools := ToolDefs()
	mcpServer.AddTool(tools[0], handlers.HandleServerInfo)
	mcpServer.AddTool(tools[1], handlers.HandleGeneratePodcast)
	mcpServer.AddTool(tools[2], handlers.HandleGetPodcast)
	mcpServer.AddTool(tools[3], handlers.HandleListPodcasts)
	mcpServer.AddTool(tools[4], handlers.HandleGenerateDiagram)
	mcpServer.AddTool(tools[5], handlers.HandleListVoices)

	return &Server{cfg: cfg, mcp: mcpServer, handlers: handlers, log: logger}
}

// Start runs the HTTP MCP server, mounting the StreamableHTTPServer at /mcp.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("starting MCP server", "addr", addr)

	mcpHandler := server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	mux.Handle("/mcp/", mcpHandler)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("http request", "method", r.Method, "path", r.URL.Path)
		if r.Method == http.MethodPost && r.Header.Get("Content-Type") == "" {
			r.Header.Set("Content-Type", "application/json")
		}
		mux.ServeHTTP(w, r)
	})

	httpSrv := &http.Server{Addr: addr, Handler: handler}
	return httpSrv.ListenAndServe()
}
