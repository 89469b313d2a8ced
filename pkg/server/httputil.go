package server

import (
	"log"
	"net/http"

	json "github.com/goccy/go-json"
)

// Error codes carried in error responses.
const (
	codeBadRequest    = "BAD_REQUEST"
	codeNotFound      = "NOT_FOUND"
	codeUnknownField  = "UNKNOWN_FIELD"
	codeUnknownSchema = "UNKNOWN_SCHEMA"
	codeNotFileField  = "NOT_FILE_FIELD"
	codeNoSchema      = "NO_SCHEMA"
	codeStaleForm     = "STALE_FORM"
	codeUnavailable   = "UNAVAILABLE"
	codeInternal      = "INTERNAL"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
