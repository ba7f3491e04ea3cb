package main

import (
	"fmt"
	"net/http"
)

// handleGetUsage returns aggregate usage counts
func (s *Server) handleGetUsage(w http.ResponseWriter, r *http.Request) {
	summary, err := s.recorder.Usage()
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to aggregate usage: %v", err))
		return
	}

	writeJSONResponse(w, http.StatusOK, summary)
}

// handleListActions returns the most recent recorded actions, newest
// first. The limit query parameter caps the result, default 50.
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)

	actions, err := s.recorder.Recent(limit)
	if err != nil {
		writeInternalServerErrorResponse(w, fmt.Sprintf("Failed to list actions: %v", err))
		return
	}

	writeJSONResponse(w, http.StatusOK, actions)
}
