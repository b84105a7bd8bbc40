package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpapi "optimal-chess/internal/api/http"
	"optimal-chess/internal/api/ws"
	"optimal-chess/internal/bridge"
	"optimal-chess/internal/config"
	"optimal-chess/internal/game"
	"optimal-chess/internal/room"
	"optimal-chess/internal/store"

	// swagger packages
	_ "optimal-chess/docs"
)

// @title Chess Rooms API
// @version 1.0
// @description Realtime two-player chess rooms over WebSocket, with REST helpers (Go + Gin)
// @BasePath /
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	setupLogging(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	clk := clockwork.NewRealClock()
	mem := store.NewMemoryStore()
	rm := room.NewManager(mem, cfg.Game, game.NewEngine(), clk)
	hub := ws.NewHub(rm, cfg, clk)
	rm.SetHub(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	var br *bridge.Bridge
	if cfg.NATS.URL != "" {
		br, err = bridge.Connect(cfg, bridge.HubAllocator(hub, rm))
		if err != nil {
			log.Error().Err(err).Msg("room bridge disabled")
		}
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(rm, hub, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("public_url", cfg.PublicURL).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if br != nil {
		br.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	<-hubDone
	log.Info().Msg("shutdown complete")
}

func setupLogging(cfg config.Config) {
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
