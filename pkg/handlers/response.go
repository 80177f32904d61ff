package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the failure envelope of every endpoint.
// The 400 body carries only error, the 404 body only message.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// NotFoundBody is the 404 body of /api/data. QueryTime is in milliseconds.
type NotFoundBody struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	QueryTime int64  `json:"queryTime"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorText, message string) error {
	return WriteJSON(w, statusCode, ErrorBody{
		Success: false,
		Error:   errorText,
		Message: message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
