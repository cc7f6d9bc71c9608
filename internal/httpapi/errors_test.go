package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"repocast/internal/apierr"
)

func TestWriteErrorMapsApierrKindToStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, apierr.New(apierr.KindInvalidInput, "ingest", "missing repo_url", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Kind != "invalid_input" || body.Error != "missing repo_url" {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteErrorTreatsPlainErrorAsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("something unexpected"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Kind != "internal" {
		t.Errorf("Kind = %q, want internal", body.Kind)
	}
}

func TestWriteJSONSetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"ok": "yes"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestDecodeJSONPopulatesTarget(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"repo_url":"https://github.com/owner/repo"}`))
	var body struct {
		RepoURL string `json:"repo_url"`
	}
	if err := decodeJSON(req, &body); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	if body.RepoURL != "https://github.com/owner/repo" {
		t.Errorf("RepoURL = %q", body.RepoURL)
	}
}
