package httpapi

import (
	"io"
	"mime/multipart"
	"net/http"

	"repocast/internal/apierr"
)

type voiceAnalyzeRequest struct {
	RepoURL string `json:"repo_url"`
}

type voiceAnalyzeResponse struct {
	Success               bool   `json:"success"`
	SessionID             string `json:"session_id"`
	RepoName              string `json:"repo_name"`
	RepoDescription       string `json:"repo_description"`
	AnalysisSummary       string `json:"analysis_summary"`
	IntroductionText      string `json:"introduction_text"`
	IntroductionAudioSize int    `json:"introduction_audio_size"`
}

func (s *Server) handleVoiceAnalyzeRepo(w http.ResponseWriter, r *http.Request) {
	var req voiceAnalyzeRequest
	if err := decodeJSON(r, &req); err != nil || req.RepoURL == "" {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "repo_url is required", err))
		return
	}

	result, err := s.VoiceManager.AnalyzeRepo(r.Context(), req.RepoURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voiceAnalyzeResponse{
		Success:               true,
		SessionID:             result.SessionID,
		RepoName:              result.RepoName,
		RepoDescription:       result.RepoDescription,
		AnalysisSummary:       result.AnalysisSummary,
		IntroductionText:      result.IntroductionText,
		IntroductionAudioSize: result.IntroductionAudioSize,
	})
}

func (s *Server) handleVoiceIntroductionAudio(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	audio, err := s.VoiceManager.IntroductionAudio(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

type voiceSTTResponse struct {
	Transcript string `json:"transcript"`
}

func (s *Server) handleVoiceSTT(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	if err := r.ParseMultipartForm(20 << 20); err != nil {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "expected multipart form with an audio field", err))
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "missing audio field", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "read uploaded audio", err))
		return
	}

	mimeType := contentTypeOf(header)
	transcript, err := s.VoiceManager.STT(r.Context(), sessionID, data, mimeType)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, voiceSTTResponse{Transcript: transcript})
}

func contentTypeOf(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "audio/wav"
}

type voiceAskRequest struct {
	Transcript string `json:"transcript"`
}

type voiceAskResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleVoiceAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	var req voiceAskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "transcript is required", err))
		return
	}

	reply, err := s.VoiceManager.Ask(r.Context(), sessionID, req.Transcript)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voiceAskResponse{Response: reply})
}

type voiceTTSRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

func (s *Server) handleVoiceTTS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	var req voiceTTSRequest
	if err := decodeJSON(r, &req); err != nil || req.Text == "" {
		writeError(w, apierr.New(apierr.KindInvalidInput, "httpapi", "text is required", err))
		return
	}

	audio, err := s.VoiceManager.TTS(r.Context(), sessionID, req.Text, req.VoiceID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

func (s *Server) handleVoiceInterrupt(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if err := s.VoiceManager.Interrupt(sessionID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"interrupted": true})
}
