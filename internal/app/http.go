package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"containerboard/api/internal/auth"
	"containerboard/api/internal/rbac"
	"containerboard/api/internal/tracker"
	"containerboard/api/internal/util"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	log        zerolog.Logger
}

func NewHTTPServer(service *Service, corsOrigin string, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin, log: log}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		session, err := s.service.SessionFromToken(r.Context(), bearerToken(r))
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userName":      session.UserName,
			"userId":        session.UserID,
			"role":          session.Role,
		})
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/board" {
		if !s.service.Can(session.Role, rbac.ActionView) {
			s.forbid(w, r, session, rbac.ActionView)
			return
		}
		today, err := s.service.ParseToday(r.URL.Query().Get("today"))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, s.service.Board(r.Context(), session, today))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/containers" {
		if !s.service.Can(session.Role, rbac.ActionView) {
			s.forbid(w, r, session, rbac.ActionView)
			return
		}
		records := s.service.Workspace(r.Context(), session).Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{"containers": indexedRecords(records)})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/containers" {
		var body AddIntent
		if !s.decodeIntent(w, r, session, &body) {
			return
		}
		s.dispatch(w, r, session, body)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/containers/reload" {
		if !s.service.Can(session.Role, rbac.ActionReload) {
			s.forbid(w, r, session, rbac.ActionReload)
			return
		}
		records, err := s.service.Reload(r.Context(), session)
		response := map[string]any{
			"loaded": err == nil,
			"board":  buildBoard(records, s.service.Today()),
		}
		if err != nil {
			response["loadError"] = err.Error()
		}
		writeJSON(w, http.StatusOK, response)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/holds" {
		var body ToggleHoldIntent
		if !s.decodeIntent(w, r, session, &body) {
			return
		}
		s.dispatch(w, r, session, body)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "containers" {
		s.handleContainer(w, r, session, parts[2:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// handleContainer serves /api/containers/{index}[/action].
func (s *HTTPServer) handleContainer(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "index must be an integer", nil)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if !s.service.Can(session.Role, rbac.ActionMutate) {
			s.forbid(w, r, session, rbac.ActionMutate)
			return
		}
		s.dispatch(w, r, session, RemoveIntent{Index: index})
	case len(parts) == 2 && parts[1] == "eta" && r.Method == http.MethodPut:
		var body struct {
			ETA string `json:"eta"`
		}
		if !s.decodeIntent(w, r, session, &body) {
			return
		}
		s.dispatch(w, r, session, UpdateETAIntent{Index: index, ETA: body.ETA})
	case len(parts) == 2 && parts[1] == "claim" && r.Method == http.MethodPost:
		if !s.service.Can(session.Role, rbac.ActionMutate) {
			s.forbid(w, r, session, rbac.ActionMutate)
			return
		}
		s.dispatch(w, r, session, ToggleClaimIntent{Index: index})
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}

// decodeIntent checks the mutate permission and decodes the request body
// into target. It writes the error response itself and reports false on
// failure.
func (s *HTTPServer) decodeIntent(w http.ResponseWriter, r *http.Request, session Session, target any) bool {
	if !s.service.Can(session.Role, rbac.ActionMutate) {
		s.forbid(w, r, session, rbac.ActionMutate)
		return false
	}
	if err := decodeBody(r, target); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return false
	}
	return true
}

func (s *HTTPServer) dispatch(w http.ResponseWriter, r *http.Request, session Session, intent Intent) {
	outcome, err := s.service.Dispatch(r.Context(), session, intent)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	response := map[string]any{
		"intent": outcome.Intent,
		"saved":  outcome.Saved,
		"board":  buildBoard(outcome.Records, s.service.Today()),
	}
	if outcome.SaveError != nil {
		response["saveError"] = outcome.SaveError.Error()
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{}
	for name, err := range s.service.Ping(ctx) {
		if err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks[name] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "ok"}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

// forbid writes a 403 Forbidden response and logs the denial
func (s *HTTPServer) forbid(w http.ResponseWriter, r *http.Request, session Session, action rbac.Action) {
	s.log.Info().
		Str("request_id", requestID(r.Context())).
		Str("user_id", session.UserID).
		Str("role", string(session.Role)).
		Str("action", string(action)).
		Msg("forbidden")
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

type indexedRecord struct {
	Index int `json:"index"`
	tracker.Record
}

func indexedRecords(records []tracker.Record) []indexedRecord {
	out := make([]indexedRecord, 0, len(records))
	for i, record := range records {
		out = append(out, indexedRecord{Index: i, Record: record})
	}
	return out
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = util.NewID("req")
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", reqID)

		next.ServeHTTP(writer, r)

		s.log.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
