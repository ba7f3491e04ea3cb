package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tableprep/tableprep-go/utils"
)

// Per-route time budgets. Uploads parse the whole file and a comparison
// trains the model battery twice, so both get the long budget; exports
// re-serialize the full dataset.
const (
	defaultRouteTimeout = 30 * time.Second
	exportRouteTimeout  = 60 * time.Second
	heavyRouteTimeout   = 120 * time.Second
)

// routeTimeout picks the budget for a request by route shape.
func routeTimeout(r *http.Request) time.Duration {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/datasets":
		return heavyRouteTimeout
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/compare"):
		return heavyRouteTimeout
	case strings.HasSuffix(r.URL.Path, "/download"),
		strings.HasSuffix(r.URL.Path, "/report/pdf"):
		return exportRouteTimeout
	}
	return defaultRouteTimeout
}

// TimeoutMiddleware bounds handler execution. The handler runs in its own
// goroutine against a deadline context; when the deadline expires first
// the client gets a 504 and the goroutine finishes against its cancelled
// context.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			go func() {
				defer func() {
					if rec := recover(); rec != nil {
						utils.GetLogger().Error("Panic in HTTP handler",
							fmt.Errorf("panic: %v", rec),
							utils.String("path", r.URL.Path),
							utils.Component("middleware"))
					}
					close(done)
				}()
				next.ServeHTTP(w, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				utils.GetLogger().Warn("Request timed out",
					utils.String("path", r.URL.Path),
					utils.String("method", r.Method),
					utils.String("timeout", timeout.String()),
					utils.Component("middleware"))

				// A handler that already started streaming owns the response
				if w.Header().Get("Content-Type") == "" {
					writeErrorResponse(w, http.StatusGatewayTimeout,
						"Request timeout - operation took too long")
				}
			}
		})
	}
}

// APITimeoutMiddleware applies the per-route budget to every request.
func APITimeoutMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			TimeoutMiddleware(routeTimeout(r))(next).ServeHTTP(w, r)
		})
	}
}
