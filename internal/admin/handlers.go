package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tkingovr/filtertools/api"
	"github.com/tkingovr/filtertools/internal/pipeline"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.auditStore.Stats(r.Context())
	if err != nil {
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, stats)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	qf, err := parseQueryFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records, err := s.auditStore.Query(r.Context(), qf)
	if err != nil {
		http.Error(w, "failed to query audit log", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []*api.AuditRecord{}
	}
	s.writeJSON(w, records)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	data, err := s.config.MarshalYAML()
	if err != nil {
		http.Error(w, "failed to render pipeline", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cr, err := pipeline.NewCheckRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, s.pipeline.Check(cr))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// parseQueryFilter reads the audit query from URL parameters: since and
// until (RFC 3339), method, path (prefix), status, outcome, limit, offset.
func parseQueryFilter(r *http.Request) (api.QueryFilter, error) {
	q := r.URL.Query()
	qf := api.QueryFilter{
		Method:  q.Get("method"),
		Path:    q.Get("path"),
		Outcome: api.Outcome(q.Get("outcome")),
		Limit:   100,
	}

	for name, dst := range map[string]*time.Time{"since": &qf.Since, "until": &qf.Until} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return qf, fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = t
		}
	}
	for name, dst := range map[string]*int{"status": &qf.Status, "limit": &qf.Limit, "offset": &qf.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return qf, fmt.Errorf("invalid %s %q", name, v)
			}
			*dst = n
		}
	}
	return qf, nil
}
