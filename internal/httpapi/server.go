// Package httpapi exposes the service's HTTP surface: diagram generation,
// podcast generation (synchronous and streaming), cached-podcast listing,
// and the voice conversation endpoints. Reuses internal/mcpserver's
// slog-based request logging, generalized from an MCP tool surface to a plain REST/SSE API since
// mark3labs/mcp-go models tool calls, not arbitrary HTTP routes, and this
// surface needs a REST+SSE contract instead.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"repocast/internal/diagram"
	"repocast/internal/ingest"
	"repocast/internal/podcast"
	"repocast/internal/voice"
)

// Server wires the diagram pipeline, podcast builder, and voice manager
// into a single net/http.Handler. Routing uses the stdlib ServeMux's
// method-and-path patterns (Go 1.22+) rather than a third-party router —
// no router library appears anywhere in the pack's go.mod files, and the
// teacher's own HTTP surface (internal/mcpserver) is plain net/http too.
type Server struct {
	Ingester       *ingest.Ingester
	DiagramPipeline *diagram.Pipeline
	PodcastBuilder *podcast.Builder
	VoiceManager   *voice.Manager
	ModelContextWindow int

	Logger *slog.Logger
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /parse-repo", s.handleParseRepo)
	mux.HandleFunc("POST /generate-diagram", s.handleGenerateDiagram)
	mux.HandleFunc("POST /generate-podcast", s.handleGeneratePodcast)
	mux.HandleFunc("POST /generate-podcast-stream", s.handleGeneratePodcastStream)
	mux.HandleFunc("GET /podcast-audio/{cache_key}", s.handlePodcastAudio)
	mux.HandleFunc("GET /podcast-script/{cache_key}", s.handlePodcastScript)
	mux.HandleFunc("GET /cached-podcasts", s.handleCachedPodcasts)

	mux.HandleFunc("POST /voice/analyze-repo", s.handleVoiceAnalyzeRepo)
	mux.HandleFunc("GET /voice/introduction-audio", s.handleVoiceIntroductionAudio)
	mux.HandleFunc("POST /voice/stt", s.handleVoiceSTT)
	mux.HandleFunc("POST /voice/ask", s.handleVoiceAsk)
	mux.HandleFunc("POST /voice/tts", s.handleVoiceTTS)
	mux.HandleFunc("POST /voice/interrupt", s.handleVoiceInterrupt)

	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withLogging(mux)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.Logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
