package httpapi

import (
	"net/http"

	"repocast/internal/apierr"
	"repocast/internal/contextbuilder"
)

type parseRepoRequest struct {
	RepoURL string `json:"repo_url"`
}

type parseRepoResponse struct {
	RepoName      string `json:"repo_name"`
	DefaultBranch string `json:"default_branch"`
	FileCount     int    `json:"file_count"`
	TreeTruncated bool   `json:"tree_truncated"`
	ContentHash   string `json:"content_hash"`
}

func (s *Server) handleParseRepo(w http.ResponseWriter, r *http.Request) {
	var req parseRepoRequest
	if err := decodeJSON(r, &req); err != nil || req.RepoURL == "" {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "repo_url is required", err))
		return
	}

	snap, err := s.Ingester.Parse(r.Context(), req.RepoURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, parseRepoResponse{
		RepoName:      snap.DisplayName,
		DefaultBranch: snap.DefaultBranch,
		FileCount:     len(snap.Tree),
		TreeTruncated: snap.TreeTruncated,
		ContentHash:   snap.ContentHash,
	})
}

type generateDiagramRequest struct {
	RepoURL string `json:"repo_url"`
}

type generateDiagramResponse struct {
	GraphText string             `json:"graph_text"`
	Nodes     []diagramComponent `json:"nodes"`
}

type diagramComponent struct {
	Component string   `json:"component"`
	Paths     []string `json:"paths"`
	Role      string   `json:"role"`
}

func (s *Server) handleGenerateDiagram(w http.ResponseWriter, r *http.Request) {
	var req generateDiagramRequest
	if err := decodeJSON(r, &req); err != nil || req.RepoURL == "" {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "repo_url is required", err))
		return
	}

	snap, err := s.Ingester.Parse(r.Context(), req.RepoURL)
	if err != nil {
		writeError(w, err)
		return
	}

	pc := contextbuilder.Build(snap, contextbuilder.PurposeDiagram, s.ModelContextWindow)
	artifact, err := s.DiagramPipeline.Generate(r.Context(), pc)
	if err != nil {
		writeError(w, err)
		return
	}

	nodes := make([]diagramComponent, len(artifact.Components))
	for i, n := range artifact.Components {
		nodes[i] = diagramComponent{Component: n.Component, Paths: n.Paths, Role: n.Role}
	}
	writeJSON(w, http.StatusOK, generateDiagramResponse{GraphText: artifact.GraphText, Nodes: nodes})
}
