package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 100 * 1024

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   errorType,
		Message: message,
	})
}

// WriteJSON encodes v as the response body with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnw("failed to encode response", "error", err)
	}
}

// DecodeJSON reads a size-limited JSON body into v.
// On failure it writes a 400 and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return false
	}
	return true
}

// RequireUser writes a 401 and returns false when the request is anonymous
func RequireUser(w http.ResponseWriter, userID string) bool {
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return false
	}
	return true
}

// WriteInternalError logs err and writes a 500 without leaking details
func WriteInternalError(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error) {
	if logger == nil {
		logger = zap.S()
	}
	logger.Errorw("unexpected handler error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
}
