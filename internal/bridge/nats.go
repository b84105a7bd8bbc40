// Package bridge answers chat-bot requests for new rooms over NATS
// request/reply.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"optimal-chess/internal/api/ws"
	"optimal-chess/internal/config"
	"optimal-chess/internal/game"
	"optimal-chess/internal/room"
	"optimal-chess/internal/shared"
)

const requestTimeout = 5 * time.Second

// AllocateFunc creates a room, applies settings when given, and returns its ID.
type AllocateFunc func(ctx context.Context, settings *shared.Settings) (string, error)

// HubAllocator allocates rooms on the hub's event loop.
func HubAllocator(hub *ws.Hub, rm *room.Manager) AllocateFunc {
	return func(ctx context.Context, settings *shared.Settings) (string, error) {
		var (
			id     string
			create error
		)
		err := hub.Do(ctx, func() {
			r, err := rm.Create()
			if err != nil {
				create = err
				return
			}
			if settings != nil {
				rm.Initialize(r.ID, *settings)
			}
			id = r.ID
		})
		if err != nil {
			return "", err
		}
		return id, create
	}
}

type CreateRoomRequest struct {
	Settings *struct {
		Time  int    `json:"time"`
		Color string `json:"color"`
	} `json:"settings,omitempty"`
}

type CreateRoomReply struct {
	RoomID string `json:"roomId,omitempty"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Bridge struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	alloc   AllocateFunc
	roomURL func(string) string
}

// Connect subscribes the create-room responder on cfg.NATS.Subject.
func Connect(cfg config.Config, alloc AllocateFunc) (*Bridge, error) {
	opts := []nats.Option{
		nats.Name("chess-room-bridge"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	b := &Bridge{nc: nc, alloc: alloc, roomURL: cfg.RoomURL}
	b.sub, err = nc.Subscribe(cfg.NATS.Subject, b.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s: %w", cfg.NATS.Subject, err)
	}
	log.Info().Str("subject", cfg.NATS.Subject).Str("url", nc.ConnectedUrl()).Msg("room bridge listening")
	return b, nil
}

func (b *Bridge) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	reply := b.createRoom(ctx, msg.Data)
	data, err := json.Marshal(reply)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal bridge reply")
		return
	}
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Warn().Err(err).Msg("failed to answer room request")
	}
}

func (b *Bridge) createRoom(ctx context.Context, body []byte) CreateRoomReply {
	var req CreateRoomRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return CreateRoomReply{Error: "invalid request"}
		}
	}

	var settings *shared.Settings
	if req.Settings != nil {
		settings = &shared.Settings{Time: req.Settings.Time, Color: game.ParseColor(req.Settings.Color)}
	}

	id, err := b.alloc(ctx, settings)
	if err != nil {
		log.Error().Err(err).Msg("bridge room allocation failed")
		return CreateRoomReply{Error: "could not create room"}
	}
	log.Info().Str("room_id", id).Msg("room created for bot")
	return CreateRoomReply{RoomID: id, URL: b.roomURL(id)}
}

// Close drains the subscription and the connection.
func (b *Bridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if err := b.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("NATS drain failed")
	}
}
