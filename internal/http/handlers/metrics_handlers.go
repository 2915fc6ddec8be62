package handlers

import (
	"errors"
	"net/http"

	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	repo "github.com/rogerio-castellano/enterprise-bi/internal/repo"
	"github.com/rs/zerolog"
)

// withSession holds one warehouse session for the duration of fn and always releases it.
func withSession(r *http.Request, fn func(s db.Session) error) error {
	s, err := sessions.Open(r.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			zerolog.Ctx(r.Context()).Warn().Err(cerr).Msg("failed to release database session")
		}
	}()
	return fn(s)
}

func toDepartmentResponse(rows []repo.DepartmentMetrics) []DepartmentMetricsResponse {
	resp := make([]DepartmentMetricsResponse, len(rows))
	for i, m := range rows {
		resp[i] = DepartmentMetricsResponse{
			Region:            m.Region,
			DepartmentName:    m.DepartmentName,
			TotalTransactions: m.TotalTransactions,
			TotalRevenue:      m.TotalRevenue,
			TotalMargin:       m.TotalMargin,
		}
	}
	return resp
}

func toTimeSeriesResponse(rows []repo.TimeSeriesMetrics) []TimeSeriesMetricsResponse {
	resp := make([]TimeSeriesMetricsResponse, len(rows))
	for i, m := range rows {
		resp[i] = TimeSeriesMetricsResponse{
			Year:    m.Year,
			Month:   m.Month,
			Revenue: m.Revenue,
			Margin:  m.Margin,
		}
	}
	return resp
}

// GetDepartmentMetricsHandler godoc
// @Summary Revenue, margin and transactions per region and department
// @Description Sorted by total revenue descending, ties by department name then region.
// @Tags metrics
// @Produce json
// @Success 200 {array} DepartmentMetricsResponse
// @Failure 500 {string} string "Internal error"
// @Router /api/v1/metrics/departments [get]
func GetDepartmentMetricsHandler(w http.ResponseWriter, r *http.Request) {
	var rows []repo.DepartmentMetrics
	err := withSession(r, func(s db.Session) error {
		var err error
		rows, err = metricsRepo.DepartmentMetrics(r.Context(), s)
		return err
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("department metrics failed")
		http.Error(w, "failed to fetch department metrics", http.StatusInternalServerError)
		return
	}

	if err := writeJSON(w, http.StatusOK, toDepartmentResponse(rows)); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
		if errors.Is(err, errEncodeJSON) {
			http.Error(w, "failed to fetch department metrics", http.StatusInternalServerError)
		}
	}
}

// GetTimeSeriesMetricsHandler godoc
// @Summary Revenue and margin per calendar month
// @Description Sorted by year then month, ascending.
// @Tags metrics
// @Produce json
// @Success 200 {array} TimeSeriesMetricsResponse
// @Failure 500 {string} string "Internal error"
// @Router /api/v1/metrics/timeseries [get]
func GetTimeSeriesMetricsHandler(w http.ResponseWriter, r *http.Request) {
	var rows []repo.TimeSeriesMetrics
	err := withSession(r, func(s db.Session) error {
		var err error
		rows, err = metricsRepo.TimeSeriesMetrics(r.Context(), s)
		return err
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("time series metrics failed")
		http.Error(w, "failed to fetch time series metrics", http.StatusInternalServerError)
		return
	}

	if err := writeJSON(w, http.StatusOK, toTimeSeriesResponse(rows)); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
		if errors.Is(err, errEncodeJSON) {
			http.Error(w, "failed to fetch time series metrics", http.StatusInternalServerError)
		}
	}
}
