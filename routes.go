package main

// setupRoutes sets up the HTTP routes with API versioning
func (s *Server) setupRoutes() {
	// Add middleware
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.errorRecoveryMiddleware)
	s.router.Use(APITimeoutMiddleware())

	// Create API version subrouter
	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.versionMiddleware("v1"))
	if s.config.AuthEnabled() {
		v1.Use(s.authMiddleware)
	}

	// Health check (no version)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Dataset management
	v1.HandleFunc("/datasets", s.handleUploadDataset).Methods("POST")
	v1.HandleFunc("/datasets", s.handleListDatasets).Methods("GET")
	v1.HandleFunc("/datasets/{id}", s.handleGetDataset).Methods("GET")
	v1.HandleFunc("/datasets/{id}", s.handleDeleteDataset).Methods("DELETE")
	v1.HandleFunc("/datasets/{id}/profile", s.handleProfileDataset).Methods("GET")
	v1.HandleFunc("/datasets/{id}/download", s.handleDownloadDataset).Methods("GET")

	// Preparation jobs
	v1.HandleFunc("/datasets/{id}/preprocess", s.handleSubmitPreprocess).Methods("POST")
	v1.HandleFunc("/datasets/{id}/report", s.handleGetReport).Methods("GET")
	v1.HandleFunc("/datasets/{id}/report/pdf", s.handleGetReportPDF).Methods("GET")
	v1.HandleFunc("/datasets/{id}/compare", s.handleCompareDataset).Methods("POST")
	v1.HandleFunc("/jobs", s.handleListJobs).Methods("GET")
	v1.HandleFunc("/jobs/{id}", s.handleGetJob).Methods("GET")

	// Usage analytics
	v1.HandleFunc("/analytics/usage", s.handleGetUsage).Methods("GET")
	v1.HandleFunc("/analytics/actions", s.handleListActions).Methods("GET")

	// System/Version endpoints
	v1.HandleFunc("/version", s.handleVersion).Methods("GET")
}
