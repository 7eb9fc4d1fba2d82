package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/blackwell-systems/libraryctl/internal/catalog"
)

// envelope is the response shape shared by every endpoint.
type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       any                 `json:"data,omitempty"`
	Pagination *catalog.Pagination `json:"pagination,omitempty"`
	Error      catalog.FieldErrors `json:"error,omitempty"`
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, msg string, data any) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: data})
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, msg string, data any) {
	respondJSON(w, http.StatusCreated, envelope{Success: true, Message: msg, Data: data})
}

// respondList writes a success response with optional pagination.
func respondList(w http.ResponseWriter, msg string, data any, pg *catalog.Pagination) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Message: msg, Data: data, Pagination: pg})
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, status int, msg string, fields catalog.FieldErrors) {
	respondJSON(w, status, envelope{Success: false, Message: msg, Error: fields})
}

func respondJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
