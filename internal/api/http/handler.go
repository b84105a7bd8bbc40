package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"optimal-chess/internal/api/ws"
	"optimal-chess/internal/config"
	"optimal-chess/internal/game"
	"optimal-chess/internal/room"
	"optimal-chess/internal/shared"
)

// Room state is only read or changed inside hub.Do. Closures passed to Do
// capture plain values, never the *gin.Context.

func loopError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ws.ErrHubClosed) {
		status = http.StatusServiceUnavailable
	}
	log.Warn().Err(err).Str("path", c.FullPath()).Msg("event loop unavailable")
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

// @Summary Create new room
// @Description Allocate a room under a fresh code, optionally applying its one-time settings
// @Tags Room
// @Accept json
// @Produce json
// @Param request body CreateRoomRequest false "Room settings"
// @Success 201 {object} CreateRoomResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/rooms [post]
func CreateRoomHandler(rm *room.Manager, hub *ws.Hub, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRoomRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payload"})
				return
			}
		}
		var settings *shared.Settings
		if req.Settings != nil {
			settings = &shared.Settings{
				Time:  req.Settings.Time,
				Color: game.ParseColor(req.Settings.Color),
			}
		}

		var (
			view    room.View
			created error
		)
		err := hub.Do(c.Request.Context(), func() {
			r, err := rm.Create()
			if err != nil {
				created = err
				return
			}
			if settings != nil {
				rm.Initialize(r.ID, *settings)
			}
			view = r.View()
		})
		if err != nil {
			loopError(c, err)
			return
		}
		if created != nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: created.Error()})
			return
		}
		c.JSON(http.StatusCreated, CreateRoomResponse{
			RoomID: view.ID,
			URL:    cfg.RoomURL(view.ID),
			Room:   view,
		})
	}
}

// @Summary Get room
// @Description Current position, clocks and seat occupancy of a room
// @Tags Room
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} room.View
// @Failure 404 {object} ErrorResponse
// @Router /api/rooms/{id} [get]
func GetRoomHandler(rm *room.Manager, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var (
			view  room.View
			found bool
		)
		err := hub.Do(c.Request.Context(), func() {
			var r *room.Room
			if r, found = rm.Get(id); found {
				view = r.View()
			}
		})
		if err != nil {
			loopError(c, err)
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: room.ErrRoomNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func IndexPageHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.tmpl", gin.H{
			"title":          "Chess",
			"defaultMinutes": cfg.Game.DefaultClockSeconds / 60,
		})
	}
}

// RoomPageHandler renders the room, creating it if nobody has used the code
// yet.
func RoomPageHandler(rm *room.Manager, hub *ws.Hub, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("id")
		var (
			id     string
			status string
			ok     bool
		)
		err := hub.Do(c.Request.Context(), func() {
			var r *room.Room
			if r, ok = rm.GetOrCreate(raw); ok {
				id, status = r.ID, r.Status()
			}
		})
		if err != nil {
			loopError(c, err)
			return
		}
		if !ok {
			c.String(http.StatusNotFound, "invalid room code")
			return
		}
		c.HTML(http.StatusOK, "room.tmpl", gin.H{
			"roomId": id,
			"status": status,
			"url":    cfg.RoomURL(id),
		})
	}
}

// @Summary Health check
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// @Summary Server stats
// @Description Live rooms, seated players, spectators, running clocks, sessions and quickplay state
// @Tags Ops
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /stats [get]
func StatsHandler(rm *room.Manager, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resp StatsResponse
		err := hub.Do(c.Request.Context(), func() {
			resp.Stats = rm.Stats()
			resp.Sessions = hub.Sessions()
			resp.QuickplayWaiting = hub.QuickplayWaiting()
		})
		if err != nil {
			loopError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
