package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/nergy-se/dpils/pkg/period"
	"github.com/nergy-se/dpils/pkg/price"
	"github.com/nergy-se/dpils/pkg/version"
	"github.com/sirupsen/logrus"
)

const (
	pageTitle        = "DPils Energy"
	historyDayLayout = "2006-01-02"
	historyDefault   = 7 * 24 * time.Hour
)

type indexPage struct {
	Title       string
	Options     []pickerOption
	Periods     []periodView
	Days        []daySummary
	Current     string
	LastUpdated string
	Table       template.HTML
	Graph       template.HTML
}

type updateResponse struct {
	Table       template.HTML `json:"table"`
	Graph       template.HTML `json:"graph"`
	LastUpdated string        `json:"last_updated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	points, err := s.source.Prices(r.Context())
	if err != nil {
		logrus.Errorf("error fetching prices: %s", err)
		points = nil
	}
	points = price.Sorted(points)

	page := indexPage{
		Title:       pageTitle,
		Options:     pickerOptions(points),
		Periods:     periodViews(period.Lowest(points)),
		Days:        daySummaries(points),
		Current:     "-",
		LastUpdated: lastUpdated(s.now().In(s.location)),
	}
	if p, ok := price.Current(points, s.now()); ok {
		page.Current = p.Price.StringFixed(3) + " EUR"
	}
	if page.Table, err = renderTable(points); err != nil {
		s.internalError(w, err)
		return
	}
	if page.Graph, err = renderGraph(points); err != nil {
		s.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ExecuteTemplate(w, "index.html.tmpl", page); err != nil {
		logrus.Errorf("error rendering index: %s", err)
	}
}

func (s *Server) UpdateTable(w http.ResponseWriter, r *http.Request) {
	points, err := s.source.Prices(r.Context())
	if err != nil {
		logrus.Errorf("error fetching prices: %s", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	points = price.Sorted(points)

	resp := updateResponse{LastUpdated: lastUpdated(s.now().In(s.location))}
	if resp.Table, err = renderTable(points); err != nil {
		s.internalError(w, err)
		return
	}
	if resp.Graph, err = renderGraph(points); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) APIPrices(w http.ResponseWriter, r *http.Request) {
	points, err := s.source.Prices(r.Context())
	if err != nil {
		logrus.Errorf("error fetching prices: %s", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	points = price.Sorted(points)
	if points == nil {
		points = []price.Point{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) APIPeriods(w http.ResponseWriter, r *http.Request) {
	points, err := s.source.Prices(r.Context())
	if err != nil {
		logrus.Errorf("error fetching prices: %s", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	periods := period.Lowest(points)
	if periods == nil {
		periods = []period.Period{}
	}
	writeJSON(w, http.StatusOK, periods)
}

// APIHistory serves archived points. from defaults to a week ago and to defaults
// to the day after tomorrow so the published day ahead is included.
func (s *Server) APIHistory(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	from := today.Add(-historyDefault)
	to := today.AddDate(0, 0, 2)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.ParseInLocation(historyDayLayout, v, s.location); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from date: " + v})
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.ParseInLocation(historyDayLayout, v, s.location); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid to date: " + v})
			return
		}
	}
	if !from.Before(to) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from must be before to"})
		return
	}

	points, err := s.recorder.Prices(from, to)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if points == nil {
		points = []price.Point{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Current)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	logrus.Error(err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("error encoding response: %s", err)
	}
}
