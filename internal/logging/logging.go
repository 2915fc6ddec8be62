// Package logging configures the process-wide zerolog logger.
//
//	logging.Init(cfg.Log)
//	log.Info().Str("addr", addr).Msg("server starting")
//	zerolog.Ctx(r.Context()).Error().Err(err).Msg("query failed")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rogerio-castellano/enterprise-bi/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds a logger writing to w. Unknown levels fall back to info.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "enterprise-bi").Logger()
}

// Init replaces the global logger and makes it the default for contexts without one.
func Init(cfg config.LogConfig) {
	logger := New(cfg, os.Stdout)
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
}
