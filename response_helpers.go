package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tableprep/tableprep-go/pkg/dataset"
	"github.com/tableprep/tableprep-go/pkg/harness"
	"github.com/tableprep/tableprep-go/pkg/transform"
)

// Response helpers for common HTTP response patterns

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes an error response with the given status code and message
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]any{
		"error":  message,
		"status": "error",
	})
}

// writeBadRequestResponse writes a 400 Bad Request response
func writeBadRequestResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusBadRequest, message)
}

// writeNotFoundResponse writes a 404 Not Found response
func writeNotFoundResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusNotFound, message)
}

// writeInternalServerErrorResponse writes a 500 Internal Server Error response
func writeInternalServerErrorResponse(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal Server Error"
	}
	writeErrorResponse(w, http.StatusInternalServerError, message)
}

// writeOperationSuccessResponse writes a success response for CRUD operations
func writeOperationSuccessResponse(w http.ResponseWriter, message, idKey, idValue string) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message": message,
		idKey:     idValue,
	})
}

// writeDomainError maps a preparation error to an HTTP status: caller
// mistakes (unknown columns, bad formats, invalid steps) map to 400,
// datasets too small to work with map to 422, anything else to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	writeErrorResponse(w, statusForError(err), err.Error())
}

// statusForError classifies a preparation error. errors.As follows
// wrapped chains, so errors surfaced through a comparison side failure
// still classify by their root cause.
func statusForError(err error) int {
	var insufficient *harness.InsufficientDataError
	if errors.As(err, &insufficient) {
		return http.StatusUnprocessableEntity
	}

	var (
		notFound     *dataset.ColumnNotFoundError
		badFormat    *dataset.UnsupportedFormatError
		parseErr     *dataset.ParseError
		badConvert   *transform.TypeConversionError
		badMethod    *transform.IncompatibleMethodError
		notCategoric *transform.NotCategoricalError
	)
	switch {
	case errors.As(err, &notFound),
		errors.As(err, &badFormat),
		errors.As(err, &parseErr),
		errors.As(err, &badConvert),
		errors.As(err, &badMethod),
		errors.As(err, &notCategoric):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

// parseLimit extracts and validates a limit parameter from the request, returning default if invalid
func parseLimit(r *http.Request, defaultLimit int) int {
	limitParam := r.URL.Query().Get("limit")
	if limitParam == "" {
		return defaultLimit
	}

	var limit int
	if n, err := fmt.Sscanf(limitParam, "%d", &limit); err == nil && n == 1 && limit > 0 {
		return limit
	}
	return defaultLimit
}
