package server

import (
	"encoding/json"
	"net/http"
)

type errorCode string

const (
	codeInvalidRequest errorCode = "invalid_request"
	codeValidation     errorCode = "validation_failed"
	codeNotFound       errorCode = "not_found"
	codeConflict       errorCode = "conflict"
	codeInternal       errorCode = "internal_error"
)

type apiError struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
