package handler

import (
	"net/http"

	wrap "github.com/wayfarer-go/navigator/pkg/logger/wrapper"

	"github.com/wayfarer-go/navigator/pkg/logger"
)

type Health struct {
	serviceName string
	log         logger.Logger
}

func NewHealth(serviceName string, log logger.Logger) *Health {
	return &Health{serviceName: serviceName, log: log}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Returns the health status of the service
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "health_check")

	response := envelope{
		"status": "available",
		"system_info": envelope{
			"service-name": h.serviceName,
		},
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.log.Error(ctx, "healthcheck", err)
	}
}
