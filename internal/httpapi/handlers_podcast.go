package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"repocast/internal/apierr"
	"repocast/internal/podcast"
)

type generatePodcastRequest struct {
	RepoURL         string                `json:"repo_url"`
	DurationMinutes int                   `json:"duration_minutes"`
	Tone            string                `json:"tone"`
	VoiceSettings   podcast.VoiceSettings `json:"voice_settings"`
}

type generatePodcastResponse struct {
	CacheKey  string `json:"cache_key"`
	AudioURL  string `json:"audio_url"`
	ScriptURL string `json:"script_url"`
}

func (s *Server) handleGeneratePodcast(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePodcastRequest(w, r)
	if !ok {
		return
	}

	rec, err := s.PodcastBuilder.GetOrBuild(r.Context(), req.RepoURL, req.DurationMinutes, req.Tone, req.VoiceSettings, podcast.NullSender{})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generatePodcastResponse{
		CacheKey:  rec.CacheKey,
		AudioURL:  "/podcast-audio/" + rec.CacheKey,
		ScriptURL: "/podcast-script/" + rec.CacheKey,
	})
}

func (s *Server) handleGeneratePodcastStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodePodcastRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apierr.New(apierr.KindInternal, "httpapi", "streaming unsupported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sender := podcast.NewChannelSender(8)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer sender.Close()
		_, err := s.PodcastBuilder.GetOrBuild(r.Context(), req.RepoURL, req.DurationMinutes, req.Tone, req.VoiceSettings, sender)
		if err != nil {
			sender.Send(podcast.Event{Type: podcast.EventError, Message: err.Error()})
		}
	}()

	ctx := r.Context()
	for {
		select {
		case ev, open := <-sender.Events:
			if !open {
				return
			}
			writeSSE(w, flusher, ev)
		case <-ctx.Done():
			// A disconnected client aborts its own stream task. The build
			// itself may still be shared with other waiters via the
			// Coordinator, so it is not cancelled here — only this
			// response's delivery loop stops.
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev podcast.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func (s *Server) decodePodcastRequest(w http.ResponseWriter, r *http.Request) (generatePodcastRequest, bool) {
	var req generatePodcastRequest
	if err := decodeJSON(r, &req); err != nil || req.RepoURL == "" {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "repo_url is required", err))
		return req, false
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 5
	}
	return req, true
}

func (s *Server) handlePodcastAudio(w http.ResponseWriter, r *http.Request) {
	cacheKey := r.PathValue("cache_key")
	rec, ok := s.lookupRecord(w, cacheKey)
	if !ok {
		return
	}
	data, err := s.PodcastBuilder.Storage.Get(r.Context(), rec.AudioFile)
	if err != nil {
		writeError(w, apierr.New(apierr.KindStorageFailed, "httpapi", "read audio artifact", err))
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(data)
}

func (s *Server) handlePodcastScript(w http.ResponseWriter, r *http.Request) {
	cacheKey := r.PathValue("cache_key")
	rec, ok := s.lookupRecord(w, cacheKey)
	if !ok {
		return
	}
	data, err := s.PodcastBuilder.Storage.Get(r.Context(), rec.ScriptFile)
	if err != nil {
		writeError(w, apierr.New(apierr.KindStorageFailed, "httpapi", "read script artifact", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) lookupRecord(w http.ResponseWriter, cacheKey string) (*podcast.Record, bool) {
	rec, ok := s.PodcastBuilder.Index.Get(cacheKey)
	if !ok {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "unknown cache_key", nil))
		return nil, false
	}
	return rec, true
}

func (s *Server) handleCachedPodcasts(w http.ResponseWriter, r *http.Request) {
	records := s.PodcastBuilder.Index.List()
	writeJSON(w, http.StatusOK, records)
}
