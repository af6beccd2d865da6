package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/TobiSchelling/aiseo/internal/analytics"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(kind analytics.Kind) int {
	switch kind {
	case analytics.KindNotFound:
		return http.StatusNotFound
	case analytics.KindInvalidArgument:
		return http.StatusBadRequest
	case analytics.KindConflict:
		return http.StatusConflict
	case analytics.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail maps err onto a status code. Internal errors are logged and their
// detail is withheld from the client.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var typed *analytics.Error
	if !errors.As(err, &typed) || typed.Kind == analytics.KindInternal {
		log.WithError(err).WithField("path", r.URL.Path).Error("Request error")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeError(w, statusFor(typed.Kind), typed.Message)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.engine.ListBrands()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brands)
}

func (s *Server) handleGetBrand(w http.ResponseWriter, r *http.Request) {
	brand, err := s.engine.GetBrand(mux.Vars(r)["id"])
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, brand)
}

func (s *Server) handleCreateBrand(w http.ResponseWriter, r *http.Request) {
	var in analytics.BrandInput
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	brand, err := s.engine.CreateBrand(in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, brand)
}

func (s *Server) handleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteBrand(mux.Vars(r)["id"]); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	queries, err := s.engine.ListQueries()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	query, err := s.engine.GetQuery(mux.Vars(r)["id"])
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, query)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.engine.ListSources()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleSourcesAnalytics(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.SourcesAnalytics()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	kpis, err := s.engine.Dashboard()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, kpis)
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	series, err := s.engine.VisibilitySeries()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Suggestions()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
