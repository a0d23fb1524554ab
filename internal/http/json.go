package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/kedaara/performance-hub/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Status int
	// Kind is the machine-readable error label. When empty it is taken from the
	// AppError code carried by Err, then Fallback.
	Kind     string
	Fallback apperrors.ErrorCode
	Err      error
}

// WriteError writes {"error": kind, "message": text} with the given status.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	kind := p.Kind
	if kind == "" {
		kind = string(apperrors.GetCode(p.Err))
	}
	if kind == "" {
		kind = string(p.Fallback)
	}
	if kind == "" {
		kind = string(apperrors.ErrCodeInternal)
	}
	msg := http.StatusText(p.Status)
	if p.Err != nil {
		msg = p.Err.Error()
	}
	WriteJSON(w, p.Status, map[string]string{"error": kind, "message": msg})
}
