package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"optimal-chess/internal/config"
)

type ConfigHandler struct {
	game config.GameConfig
}

func NewConfigHandler(cfg config.GameConfig) *ConfigHandler {
	return &ConfigHandler{game: cfg}
}

// GetClockDefaultsHandler returns the clock used by rooms that were never configured
// @Summary Get clock defaults
// @Description Returns the default seconds per side and the tick interval
// @Tags Config
// @Produce json
// @Success 200 {object} ClockDefaultsResponse
// @Router /api/config/clock [get]
func (h *ConfigHandler) GetClockDefaultsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, ClockDefaultsResponse{
		DefaultSeconds: h.game.DefaultClockSeconds,
		TickMillis:     h.game.TickInterval.Milliseconds(),
	})
}
