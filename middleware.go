package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tableprep/tableprep-go/utils"
)

// ctxKey keys request-scoped values; a private type avoids collisions with
// other packages' context values.
type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyAPIVersion
)

// loggingMiddleware assigns every request an ID and logs the
// request/response pair with timing.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, requestID))

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		utils.GetLogger().Info("HTTP request",
			utils.Component("http"),
			utils.RequestID(requestID),
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(rw, r)

		utils.GetLogger().Info("HTTP response",
			utils.Component("http"),
			utils.RequestID(requestID),
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.Int("status", rw.status),
			utils.Float("duration_ms", float64(time.Since(start).Microseconds())/1000))
	})
}

// errorRecoveryMiddleware converts handler panics into 500 responses so one
// bad request cannot take the server down.
func (s *Server) errorRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				requestID, _ := r.Context().Value(ctxKeyRequestID).(string)
				utils.GetLogger().Error("Panic recovered",
					fmt.Errorf("panic: %v", v),
					utils.Component("http"),
					utils.RequestID(requestID),
					utils.String("method", r.Method),
					utils.String("path", r.URL.Path))
				writeInternalServerErrorResponse(w, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// versionMiddleware stamps responses with the API version serving them.
func (s *Server) versionMiddleware(version string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyAPIVersion, version))
			w.Header().Set("X-API-Version", version)
			next.ServeHTTP(w, r)
		})
	}
}

// authMiddleware rejects requests without a valid bearer token when
// AUTH_SECRET is configured. Tokens must be HMAC-signed with that secret.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeErrorResponse(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(s.config.AuthSecret), nil
		})
		if err != nil || !token.Valid {
			writeErrorResponse(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for the request log. The first
// WriteHeader wins, matching net/http semantics.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
