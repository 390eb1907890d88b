// Package server provides the HTTP server and routing for chainlens.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/chainlens/internal/aggregate"
	"github.com/aristath/chainlens/internal/domain"
	"github.com/aristath/chainlens/internal/risk"
	"github.com/aristath/chainlens/internal/search"
	"github.com/aristath/chainlens/internal/validate"
)

// analyzeResponse is the full report for one query.
type analyzeResponse struct {
	Data         *domain.AggregatedRecord `json:"data"`
	Validation   domain.ValidationResult  `json:"validation"`
	RiskAnalysis domain.RiskAssessment    `json:"riskAnalysis"`
	RiskScore    domain.RiskScore         `json:"riskScore"`
}

// searchResponse wraps ranked autocomplete matches.
type searchResponse struct {
	Query        string          `json:"query"`
	Results      []search.Result `json:"results"`
	Total        int             `json:"total"`
	ResponseTime string          `json:"responseTime"`
}

// handleAnalyze runs the full pipeline: aggregate, validate, assess.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing query", "pass the asset name via ?q=")
		return
	}

	opts := aggregate.Options{
		ExplicitType: parseEntityType(r.URL.Query().Get("type")),
		ForceRefresh: r.URL.Query().Get("refresh") == "true",
	}

	rec, err := s.analyze.Aggregate(r.Context(), query, opts)
	if err != nil {
		if errors.Is(err, aggregate.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "no data found",
				"no provider recognizes this asset; check the spelling or try the full name")
			return
		}
		s.log.Error().Err(err).Str("query", query).Msg("Analyze failed")
		s.writeError(w, http.StatusInternalServerError, "analysis failed", err.Error())
		return
	}

	if !validate.HasMinimumData(rec) {
		s.writeError(w, http.StatusNotFound, "insufficient data",
			"providers returned too little data to build a report for this asset")
		return
	}

	assessment := risk.Assess(rec)
	response := analyzeResponse{
		Data:         rec,
		Validation:   validate.Validate(rec),
		RiskAnalysis: assessment,
		RiskScore:    risk.Score(assessment),
	}

	// Reports change slowly; let shared caches absorb repeat queries.
	w.Header().Set("Cache-Control", "public, s-maxage=300, stale-while-revalidate=600")
	s.writeJSON(w, http.StatusOK, response)
}

// handleSearch serves autocomplete lookups.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing query", "pass the search text via ?q=")
		return
	}

	limit := search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = v
	}

	start := time.Now()
	results, err := s.search.Search(r.Context(), query, limit)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("Search failed")
		s.writeError(w, http.StatusInternalServerError, "search failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, searchResponse{
		Query:        query,
		Results:      results,
		Total:        len(results),
		ResponseTime: time.Since(start).Round(time.Millisecond).String(),
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "chainlens",
		"version": "1.0.0",
	})
}

func parseEntityType(raw string) domain.EntityType {
	switch domain.EntityType(raw) {
	case domain.EntityChain, domain.EntityProtocol, domain.EntityToken, domain.EntityExchange:
		return domain.EntityType(raw)
	default:
		return ""
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes the error envelope used across the API.
func (s *Server) writeError(w http.ResponseWriter, status int, msg, details string) {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	s.writeJSON(w, status, body)
}
