package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"repocast/internal/contextbuilder"
	"repocast/internal/diagram"
	"repocast/internal/ingest"
	"repocast/internal/podcast"
	"repocast/internal/tts"
)

// ToolDefs returns the MCP tool definitions.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "server_info",
			Description: "Returns the server name and version.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		},
		{
			Name:        "generate_podcast",
			Description: "Generate a two-speaker podcast episode narrating a public GitHub repository's architecture. Starts an async build (repo ingestion, script generation, text-to-speech synthesis, audio assembly) and returns a podcast_id immediately. Use get_podcast to poll for progress and the completed result with an audio_url link to the MP3. Identical requests (same repo_url, duration, and voice settings) are served from cache.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"repo_url": map[string]any{
						"type":        "string",
						"description": "Public GitHub repository URL to narrate",
					},
					"duration_minutes": map[string]any{
						"type":        "integer",
						"description": "Target episode length in minutes",
						"default":     5,
					},
					"tone": map[string]any{
						"type":        "string",
						"description": "Conversation tone: casual, technical, educational",
						"default":     "casual",
					},
					"voice_host": map[string]any{
						"type":        "string",
						"description": "Voice ID for the host speaker. Use list_voices to see available IDs.",
					},
					"voice_expert": map[string]any{
						"type":        "string",
						"description": "Voice ID for the expert speaker. Use list_voices to see available IDs.",
					},
				},
				Required: []string{"repo_url"},
			},
		},
		{
			Name:        "get_podcast",
			Description: "Get the status and details of a podcast build by podcast_id. Use this to check on a running generation or retrieve a completed podcast. Completed podcasts include an audio_url with a direct MP3 link — always show this link to the user.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"podcast_id": map[string]any{
						"type":        "string",
						"description": "The podcast ID returned from generate_podcast",
					},
				},
				Required: []string{"podcast_id"},
			},
		},
		{
			Name:        "list_podcasts",
			Description: "List tracked podcast builds from this server process, newest first.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results (default 20)",
						"default":     20,
					},
				},
			},
		},
		{
			Name:        "generate_diagram",
			Description: "Generate a declarative architecture diagram (flowchart graph text plus a components list) for a public GitHub repository. Runs synchronously and returns the result directly.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"repo_url": map[string]any{
						"type":        "string",
						"description": "Public GitHub repository URL to diagram",
					},
				},
				Required: []string{"repo_url"},
			},
		},
		{
			Name:        "list_voices",
			Description: "List available TTS voices for a provider. Returns voice IDs that can be used with voice_host/voice_expert params in generate_podcast.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"provider": map[string]any{
						"type":        "string",
						"description": "TTS provider name: gemini, elevenlabs, google, polly",
					},
				},
				Required: []string{"provider"},
			},
		},
	}
}

// Handlers contains tool handler implementations.
type Handlers struct {
	tasks              *TaskManager
	store              *Store
	ingester           *ingest.Ingester
	diagramPipeline    *diagram.Pipeline
	builder            *podcast.Builder
	modelContextWindow int
	log                *slog.Logger
}

// NewHandlers creates tool handlers.
func NewHandlers(tasks *TaskManager, store *Store, ingester *ingest.Ingester, diagramPipeline *diagram.Pipeline, builder *podcast.Builder, modelContextWindow int, logger *slog.Logger) *Handlers {
	return &Handlers{
		tasks:              tasks,
		store:              store,
		ingester:           ingester,
		diagramPipeline:    diagramPipeline,
		builder:            builder,
		modelContextWindow: modelContextWindow,
		log:                logger,
	}
}

// HandleGeneratePodcast starts a podcast generation task.
func (h *Handlers) HandleGeneratePodcast(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoURL := mcp.ParseString(req, "repo_url", "")
	if repoURL == "" {
		return mcp.NewToolResultError("repo_url is required"), nil
	}

	voiceSettings := podcast.VoiceSettings{
		HostVoiceID:   mcp.ParseString(req, "voice_host", ""),
		ExpertVoiceID: mcp.ParseString(req, "voice_expert", ""),
	}

	genReq := GenerateRequest{
		RepoURL:         repoURL,
		DurationMinutes: parseIntParam(req, "duration_minutes", 5),
		Tone:            mcp.ParseString(req, "tone", "casual"),
		VoiceSettings:   voiceSettings,
	}

	h.log.InfoContext(ctx, "starting podcast generation", "repo_url", repoURL)

	id, err := h.tasks.StartTask(ctx, genReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start generation: %v", err)), nil
	}

	result := map[string]any{
		"podcast_id": id,
		"status":     "submitted",
		"message":    "Podcast generation started. Use get_podcast to check progress.",
	}
	return jsonResult(result)
}

// HandleGetPodcast returns task status and, once complete, artifact URLs.
func (h *Handlers) HandleGetPodcast(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "podcast_id", "")
	if id == "" {
		return mcp.NewToolResultError("podcast_id is required"), nil
	}

	task, ok := h.store.GetTask(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("podcast %s not found", id)), nil
	}

	result := map[string]any{
		"podcast_id":    task.TaskID,
		"status":        task.Status,
		"stage_message": task.StageMessage,
		"created_at":    task.CreatedAt,
		"repo_url":      task.RepoURL,
	}
	if task.AudioURL != "" {
		result["audio_url"] = task.AudioURL
	}
	if task.ScriptURL != "" {
		result["script_url"] = task.ScriptURL
	}
	if len(task.Warnings) > 0 {
		result["warnings"] = task.Warnings
	}
	if task.ErrorMessage != "" {
		result["error"] = task.ErrorMessage
	}
	return jsonResult(result)
}

// HandleListPodcasts returns tracked tasks, newest first.
func (h *Handlers) HandleListPodcasts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := parseIntParam(req, "limit", 20)
	tasks := h.store.ListTasks(limit)

	podcasts := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		p := map[string]any{
			"podcast_id": t.TaskID,
			"status":     t.Status,
			"created_at": t.CreatedAt,
			"repo_url":   t.RepoURL,
		}
		if t.AudioURL != "" {
			p["audio_url"] = t.AudioURL
		}
		podcasts = append(podcasts, p)
	}

	return jsonResult(map[string]any{"podcasts": podcasts, "count": len(podcasts)})
}

// HandleGenerateDiagram runs the diagram chain synchronously.
func (h *Handlers) HandleGenerateDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoURL := mcp.ParseString(req, "repo_url", "")
	if repoURL == "" {
		return mcp.NewToolResultError("repo_url is required"), nil
	}

	snap, err := h.ingester.Parse(ctx, repoURL)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to ingest repo: %v", err)), nil
	}

	pc := contextbuilder.Build(snap, contextbuilder.PurposeDiagram, h.modelContextWindow)
	artifact, err := h.diagramPipeline.Generate(ctx, pc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate diagram: %v", err)), nil
	}

	components := make([]map[string]any, len(artifact.Components))
	for i, c := range artifact.Components {
		components[i] = map[string]any{"component": c.Component, "paths": c.Paths, "role": c.Role}
	}

	return jsonResult(map[string]any{
		"graph_text": artifact.GraphText,
		"components": components,
	})
}

// HandleServerInfo returns the server name and version.
func (h *Handlers) HandleServerInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := map[string]any{
		"name":    "repocast",
		"version": "1.0.0",
	}
	return jsonResult(result)
}

// HandleListVoices returns available voices for a TTS provider.
func (h *Handlers) HandleListVoices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	provider := mcp.ParseString(req, "provider", "")
	if provider == "" {
		return mcp.NewToolResultError("provider is required"), nil
	}

	voices, err := tts.AvailableVoices(provider)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown provider %q: must be gemini, elevenlabs, google, or polly", provider)), nil
	}

	voiceList := make([]map[string]any, 0, len(voices))
	for _, v := range voices {
		entry := map[string]any{
			"id":          v.ID,
			"name":        v.Name,
			"gender":      v.Gender,
			"description": v.Description,
		}
		if v.DefaultFor != "" {
			entry["default_for"] = v.DefaultFor
		}
		voiceList = append(voiceList, entry)
	}

	return jsonResult(map[string]any{
		"provider": provider,
		"voices":   voiceList,
		"count":    len(voiceList),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func parseIntParam(req mcp.CallToolRequest, key string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	raw, ok := args[key]
	if !ok {
		return defaultVal
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultVal
	}
}
