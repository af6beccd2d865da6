package server

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/TobiSchelling/aiseo/internal/analytics"
)

type indexPage struct {
	KPIs        *analytics.DashboardKPIs
	Brands      []analytics.BrandSummary
	Queries     []analytics.QuerySummary
	Suggestions *analytics.Suggestions
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	kpis, err := s.engine.Dashboard()
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	brands, err := s.engine.ListBrands()
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	queries, err := s.engine.ListQueries()
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	sugg, err := s.engine.Suggestions()
	if err != nil {
		s.pageError(w, r, err)
		return
	}

	s.render(w, "index.html", indexPage{
		KPIs:        kpis,
		Brands:      brands,
		Queries:     queries,
		Suggestions: sugg,
	})
}

func (s *Server) handlePromptPage(w http.ResponseWriter, r *http.Request) {
	query, err := s.engine.GetQuery(mux.Vars(r)["id"])
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.render(w, "prompt.html", query)
}

func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error) {
	switch analytics.KindOf(err) {
	case analytics.KindNotFound, analytics.KindInvalidArgument:
		http.NotFound(w, r)
	default:
		log.WithError(err).Error("Error loading page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
