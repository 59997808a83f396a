package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	mdwerror "github.com/msto63/mbasic/foundation/core/error"
	"github.com/msto63/mbasic/internal/frontend/service"
	"github.com/msto63/mbasic/internal/frontend/store"
)

// maxHistoryLimit caps the page size of the history endpoint
const maxHistoryLimit = 500

// ExecuteRequest is the JSON body of /execute and /api/v1/tokenize
type ExecuteRequest struct {
	Code string `json:"code"`
}

// HistoryResponse is returned by /api/v1/history
type HistoryResponse struct {
	Runs  []*store.Run `json:"runs"`
	Count int          `json:"count"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "index page missing")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.service.Execute(r.Context(), store.OriginWeb, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Body())
}

func (s *Server) handleExecuteFile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.ExecuteFile(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Body())
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.service.Tokenize(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		Origin: store.Origin(q.Get("origin")),
		Limit:  50,
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = min(n, maxHistoryLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}
	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid success filter")
			return
		}
		filter.Success = &b
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since, expected RFC 3339")
			return
		}
		filter.Since = t
	}

	runs, err := s.service.ListRuns(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Runs: runs, Count: len(runs)})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	history := s.service.History()
	if history == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	run, err := history.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.CheckWithTimeout(5 * time.Second)
	writeJSON(w, report.HTTPStatus(), report)
}

// decodeRequest reads an ExecuteRequest. A missing code field decodes as
// empty code, which the service answers itself.
func decodeRequest(w http.ResponseWriter, r *http.Request) (ExecuteRequest, bool) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	return req, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	code := mdwerror.GetCode(err)
	msg := err.Error()
	var mdwErr *mdwerror.Error
	if errors.As(err, &mdwErr) {
		msg = mdwErr.Message()
	}
	writeError(w, code.HTTPStatus(), msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, service.Rejection{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
