// Package api provides the REST API and WebSocket server for boardwalk.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	bwerrors "github.com/mpelletier/boardwalk/internal/errors"
)

// APIError is the standard error response format.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSONResponse writes a successful JSON response.
func JSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// JSONResponseStatus writes a JSON response with a specific status code.
func JSONResponseStatus(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// JSONError writes a simple error response.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Error: message})
}

// HandleError inspects error type and writes the appropriate response.
// Typed engine errors map through the taxonomy's HTTP status.
func HandleError(w http.ResponseWriter, err error) {
	var bwErr *bwerrors.Error
	if errors.As(err, &bwErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(bwErr.HTTPStatus())
		_ = json.NewEncoder(w).Encode(APIError{
			Error: bwErr.Error(),
			Code:  string(bwErr.Code),
		})
		return
	}
	// Fallback for unknown errors
	JSONError(w, err.Error(), http.StatusInternalServerError)
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
