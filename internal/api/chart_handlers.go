package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"index-dashboard/internal/chart"
	"index-dashboard/internal/domain"
	"index-dashboard/internal/observability"
	"index-dashboard/internal/storage"
)

var validSeriesID = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// maxPointsBody caps POST /chart/{series}/points bodies.
const maxPointsBody = 4 << 20

func (s *Server) handleListSeries(w http.ResponseWriter, r *http.Request) {
	ids, err := s.series.ListSeries(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list series")
		writeError(w, http.StatusInternalServerError, "list series failed")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"series": ids})
}

// handleChart returns the chart view model as JSON.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadView(w, r)
	if !ok {
		return
	}
	observability.RecordChartRender("json")
	writeJSON(w, http.StatusOK, view)
}

// handleRender returns the chart as a standalone HTML page.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	view, ok := s.loadView(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(w, view); err != nil {
		s.logger.Error().Err(err).Str("series", r.PathValue("series")).Msg("render chart")
		return
	}
	observability.RecordChartRender("html")
}

// loadView reads the series named in the path, optionally bounded by the
// from/to millisecond query parameters, and builds its view.
func (s *Server) loadView(w http.ResponseWriter, r *http.Request) (*chart.View, bool) {
	seriesID := r.PathValue("series")
	if !validSeriesID.MatchString(seriesID) {
		writeError(w, http.StatusBadRequest, "invalid series id")
		return nil, false
	}

	q := r.URL.Query()
	var points []*domain.PricePoint
	var err error
	if q.Has("from") || q.Has("to") {
		from, to, perr := timeRange(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return nil, false
		}
		points, err = s.series.GetByTimeRange(r.Context(), seriesID, from, to)
	} else {
		points, err = s.series.GetBySeries(r.Context(), seriesID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("series", seriesID).Msg("load series")
		writeError(w, http.StatusInternalServerError, "load series failed")
		return nil, false
	}

	title := q.Get("title")
	if title == "" {
		title = seriesID
	}
	cfg := chart.Config{
		Title: title,
		Icon:  chart.Icon{Src: q.Get("icon"), Alt: q.Get("icon_alt")},
		Data:  chart.FromSeries(points),
	}
	return chart.Build(cfg, s.theme), true
}

func timeRange(fromRaw, toRaw string) (int64, int64, error) {
	from, to := int64(0), int64(1<<62)
	var err error
	if fromRaw != "" {
		if from, err = strconv.ParseInt(fromRaw, 10, 64); err != nil {
			return 0, 0, fmt.Errorf("invalid from %q", fromRaw)
		}
	}
	if toRaw != "" {
		if to, err = strconv.ParseInt(toRaw, 10, 64); err != nil {
			return 0, 0, fmt.Errorf("invalid to %q", toRaw)
		}
	}
	if to < from {
		return 0, 0, fmt.Errorf("to must not be before from")
	}
	return from, to, nil
}

// handleAddPoints stores a JSON array of {x, y} points with millisecond x values.
func (s *Server) handleAddPoints(w http.ResponseWriter, r *http.Request) {
	seriesID := r.PathValue("series")
	if !validSeriesID.MatchString(seriesID) {
		writeError(w, http.StatusBadRequest, "invalid series id")
		return
	}

	var body []chart.PricePoint
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPointsBody))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON array of {x, y} points")
		return
	}

	points := make([]*domain.PricePoint, 0, len(body))
	for i, p := range body {
		t, ok := p.X.Time()
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("point %d: x must be a timestamp", i))
			return
		}
		points = append(points, &domain.PricePoint{SeriesID: seriesID, TimestampMs: t.UnixMilli(), Value: p.Y})
	}

	err := s.series.InsertBulk(r.Context(), points)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		writeError(w, http.StatusConflict, "a point with the same timestamp already exists")
		return
	case errors.Is(err, storage.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid point")
		return
	case err != nil:
		s.logger.Error().Err(err).Str("series", seriesID).Msg("insert points")
		writeError(w, http.StatusInternalServerError, "insert points failed")
		return
	}

	s.logger.Info().Str("series", seriesID).Int("points", len(points)).Msg("points stored")
	writeJSON(w, http.StatusCreated, map[string]int{"inserted": len(points)})
}
