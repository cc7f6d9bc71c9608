package httpapi

import (
	"encoding/json"
	"net/http"

	"repocast/internal/apierr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON body returned on every non-2xx response,
// carrying a stable error kind string clients can match on.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError maps err to its Kind's HTTP status (apierr.Kind.HTTPStatus)
// and writes the corresponding JSON body. Errors that never passed through
// a component boundary as an *apierr.Error are treated as internal.
func writeError(w http.ResponseWriter, err error) {
	if apiErr, ok := apierr.As(err); ok {
		writeJSON(w, apiErr.Kind.HTTPStatus(), errorResponse{Error: apiErr.Message, Kind: string(apiErr.Kind)})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: string(apierr.KindInternal)})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
