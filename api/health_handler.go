package api

import (
	"net/http"
	"time"

	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type healthHandler struct {
	responder   Responder
	logger      zerolog.Logger
	database    database.Database
	startupTime time.Time
}

func newHealthHandler(database database.Database, startupTime time.Time) healthHandler {
	logger := log.With().Str("handlerName", "healthHandler").Logger()

	return healthHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		database:    database,
		startupTime: startupTime,
	}
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Uptime string `json:"uptime" example:"1h2m3s"`
}

// healthz reports whether the server and its database are up
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} ErrorResponse "Service Unavailable - Database unreachable"
// @Router /healthz [get]
func (h healthHandler) healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.database.Ping(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("database ping failed")
			h.responder.WriteJSONStatus(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Uptime: h.uptime()})
			return
		}

		h.responder.WriteJSON(w, HealthResponse{Status: "ok", Uptime: h.uptime()})
	}
}

func (h healthHandler) uptime() string {
	return time.Since(h.startupTime).Round(time.Second).String()
}
