package http

import (
	"embed"
	"html/template"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"optimal-chess/internal/api/ws"
	"optimal-chess/internal/config"
	"optimal-chess/internal/room"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

func NewRouter(rm *room.Manager, hub *ws.Hub, cfg config.Config) http.Handler {
	r := gin.Default()
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.tmpl")))

	ch := NewConfigHandler(cfg.Game)

	// --- PAGES ---
	r.GET("/", IndexPageHandler(cfg))
	r.GET("/room/:id", RoomPageHandler(rm, hub, cfg))
	if fi, err := os.Stat(cfg.StaticDir); err == nil && fi.IsDir() {
		r.Static("/public", cfg.StaticDir)
	} else {
		log.Warn().Str("dir", cfg.StaticDir).Msg("static directory missing, /public not served")
	}

	// WebSocket for live games
	r.GET("/ws", hub.HandleWS)

	// --- ROOM ENDPOINTS ---
	r.POST("/api/rooms", CreateRoomHandler(rm, hub, cfg))
	r.GET("/api/rooms/:id", GetRoomHandler(rm, hub))

	// --- CONFIG ENDPOINTS ---
	r.GET("/api/config/clock", ch.GetClockDefaultsHandler)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", HealthHandler())
	r.GET("/stats", StatsHandler(rm, hub))

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}
