package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GameConfig struct {
	DefaultClockSeconds int           `yaml:"default_clock_seconds"`
	TickInterval        time.Duration `yaml:"tick_interval"`
	RoomCodeLength      int           `yaml:"room_code_length"`
	IdleRoomTTL         time.Duration `yaml:"idle_room_ttl"`
	SweepInterval       time.Duration `yaml:"sweep_interval"`
}

type WSConfig struct {
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PongWait       time.Duration `yaml:"pong_wait"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBuffer     int           `yaml:"send_buffer"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type Config struct {
	HTTPAddr       string     `yaml:"http_addr"`
	PublicURL      string     `yaml:"public_url"`
	LogLevel       string     `yaml:"log_level"`
	LogFormat      string     `yaml:"log_format"`
	StaticDir      string     `yaml:"static_dir"`
	AllowedOrigins []string   `yaml:"allowed_origins"`
	Game           GameConfig `yaml:"game"`
	WS             WSConfig   `yaml:"ws"`
	NATS           NATSConfig `yaml:"nats"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTPAddr:       ":3000",
		PublicURL:      "http://localhost:3000",
		LogLevel:       "info",
		LogFormat:      "json",
		StaticDir:      "public",
		AllowedOrigins: []string{"*"},
		Game: GameConfig{
			DefaultClockSeconds: 600,
			TickInterval:        time.Second,
			RoomCodeLength:      6,
			IdleRoomTTL:         30 * time.Minute,
			SweepInterval:       time.Minute,
		},
		WS: WSConfig{
			WriteTimeout:   10 * time.Second,
			PongWait:       60 * time.Second,
			PingInterval:   30 * time.Second,
			MaxMessageSize: 4096,
			SendBuffer:     256,
		},
		NATS: NATSConfig{
			Subject: "chess.rooms.create",
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getenvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Load builds the configuration from defaults, the optional CONFIG_FILE and
// the environment, in that order of precedence (environment wins).
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return cfg, err
		}
	}

	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HTTP_ADDR") == "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.PublicURL = strings.TrimRight(getenv("PUBLIC_URL", cfg.PublicURL), "/")
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.StaticDir = getenv("STATIC_DIR", cfg.StaticDir)
	cfg.AllowedOrigins = getenvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)

	cfg.Game.DefaultClockSeconds = getenvInt("DEFAULT_CLOCK_SECONDS", cfg.Game.DefaultClockSeconds)
	cfg.Game.TickInterval = getenvDuration("TICK_INTERVAL", cfg.Game.TickInterval)
	cfg.Game.RoomCodeLength = getenvInt("ROOM_CODE_LENGTH", cfg.Game.RoomCodeLength)
	cfg.Game.IdleRoomTTL = getenvDuration("IDLE_ROOM_TTL", cfg.Game.IdleRoomTTL)
	cfg.Game.SweepInterval = getenvDuration("SWEEP_INTERVAL", cfg.Game.SweepInterval)

	cfg.WS.WriteTimeout = getenvDuration("WS_WRITE_TIMEOUT", cfg.WS.WriteTimeout)
	cfg.WS.PongWait = getenvDuration("WS_PONG_WAIT", cfg.WS.PongWait)
	cfg.WS.PingInterval = getenvDuration("WS_PING_INTERVAL", cfg.WS.PingInterval)
	cfg.WS.MaxMessageSize = int64(getenvInt("WS_MAX_MESSAGE_SIZE", int(cfg.WS.MaxMessageSize)))
	cfg.WS.SendBuffer = getenvInt("WS_SEND_BUFFER", cfg.WS.SendBuffer)

	cfg.NATS.URL = getenv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.Subject = getenv("NATS_SUBJECT", cfg.NATS.Subject)

	return cfg, cfg.Validate()
}

// Validate rejects values the game loop cannot run with.
func (c Config) Validate() error {
	if c.Game.DefaultClockSeconds <= 0 {
		return fmt.Errorf("default clock seconds must be positive, got %d", c.Game.DefaultClockSeconds)
	}
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.Game.TickInterval)
	}
	if c.Game.RoomCodeLength < 4 {
		return fmt.Errorf("room code length must be at least 4, got %d", c.Game.RoomCodeLength)
	}
	if c.WS.PingInterval <= 0 {
		return fmt.Errorf("ws ping interval must be positive, got %s", c.WS.PingInterval)
	}
	if c.WS.PingInterval >= c.WS.PongWait {
		return fmt.Errorf("ws ping interval (%s) must be shorter than pong wait (%s)", c.WS.PingInterval, c.WS.PongWait)
	}
	return nil
}

// RoomURL is the shareable page address for a room.
func (c Config) RoomURL(roomID string) string {
	return c.PublicURL + "/room/" + roomID
}
