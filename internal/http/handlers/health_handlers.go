package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const liveStatus = "Enterprise BI API is running live."

// RootHandler godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router / [get]
func RootHandler(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, StatusResponse{Status: liveStatus}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
	}
}

// ReadyHandler godoc
// @Summary Readiness check
// @Description Pings the warehouse and, when configured, Redis.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, resp := http.StatusOK, StatusResponse{Status: "ready"}
	if databasePinger != nil {
		if err := databasePinger.Ping(ctx); err != nil {
			status, resp = http.StatusServiceUnavailable, StatusResponse{Status: "unavailable", Error: "database: " + err.Error()}
		}
	}
	if status == http.StatusOK && redisService != nil {
		if err := redisService.Ping(ctx); err != nil {
			status, resp = http.StatusServiceUnavailable, StatusResponse{Status: "unavailable", Error: "redis: " + err.Error()}
		}
	}

	if status != http.StatusOK {
		zerolog.Ctx(r.Context()).Warn().Str("error", resp.Error).Msg("readiness check failed")
	}
	if err := writeJSON(w, status, resp); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
	}
}
