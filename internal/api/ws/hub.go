package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"optimal-chess/internal/config"
	"optimal-chess/internal/game"
	"optimal-chess/internal/match"
	"optimal-chess/internal/room"
	"optimal-chess/internal/shared"
)

var ErrHubClosed = errors.New("hub closed")

type inbound struct {
	session *Session
	raw     []byte
}

// Hub is the session gateway. Every room operation, clock tick, sweep and
// externally submitted task runs on the goroutine executing Run; the fields
// below the channels are owned by that goroutine.
type Hub struct {
	rooms    RoomManager
	cfg      config.WSConfig
	sweep    time.Duration
	clk      clockwork.Clock
	upgrader websocket.Upgrader

	register   chan *Session
	unregister chan *Session
	inbound    chan inbound
	tasks      chan func()
	done       chan struct{}

	sessions map[string]*Session
	bindings map[string]string
	match    *match.Matchmaker
	// drops holds sessions whose buffer overflowed during the current
	// event; they are disconnected once the event has been handled.
	drops    []*Session
}

func NewHub(rooms RoomManager, cfg config.Config, clk clockwork.Clock) *Hub {
	h := &Hub{
		rooms: rooms,
		cfg:   cfg.WS,
		sweep: cfg.Game.SweepInterval,
		clk:   clk,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		register:   make(chan *Session),
		unregister: make(chan *Session),
		inbound:    make(chan inbound, 256),
		tasks:      make(chan func(), 256),
		done:       make(chan struct{}),
		sessions:   make(map[string]*Session),
		bindings:   make(map[string]string),
	}
	h.match = match.New(rooms, h.Connected, clk)
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Run processes events until ctx is cancelled. It must be called exactly once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var sweep <-chan time.Time
	if h.sweep > 0 {
		t := h.clk.NewTicker(h.sweep)
		defer t.Stop()
		sweep = t.Chan()
	}

	log.Info().Msg("hub started")
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			log.Info().Msg("hub stopped")
			return
		case s := <-h.register:
			h.sessions[s.ID] = s
			log.Debug().Str("conn_id", s.ID).Int("sessions", len(h.sessions)).Msg("session registered")
		case s := <-h.unregister:
			h.disconnect(s)
		case in := <-h.inbound:
			h.dispatch(in)
		case fn := <-h.tasks:
			fn()
		case now := <-sweep:
			if n := h.rooms.Sweep(now); n > 0 {
				log.Info().Int("rooms", n).Msg("swept idle rooms")
			}
		}
		h.flushDrops()
	}
}

func (h *Hub) flushDrops() {
	for len(h.drops) > 0 {
		s := h.drops[0]
		h.drops = h.drops[1:]
		h.disconnect(s)
	}
	h.drops = nil
}

func (h *Hub) shutdown() {
	for id, s := range h.sessions {
		delete(h.sessions, id)
		close(s.send)
	}
	h.rooms.Shutdown()
}

const (
	taskQueued int32 = iota
	taskRunning
	taskAbandoned
)

// Do runs fn on the event loop and waits for it to finish. If ctx ends while
// fn is still queued, fn is never run and ctx.Err() is returned; once fn has
// started Do waits for it.
func (h *Hub) Do(ctx context.Context, fn func()) error {
	var state atomic.Int32
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		if !state.CompareAndSwap(taskQueued, taskRunning) {
			return
		}
		fn()
	}
	select {
	case h.tasks <- task:
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		if state.CompareAndSwap(taskQueued, taskAbandoned) {
			return ErrHubClosed
		}
	case <-ctx.Done():
		if state.CompareAndSwap(taskQueued, taskAbandoned) {
			return ctx.Err()
		}
	}
	<-finished
	return nil
}

// Post queues fn for the event loop without waiting. Clock tickers use it
// from their own goroutines.
func (h *Hub) Post(fn func()) {
	select {
	case h.tasks <- fn:
	case <-h.done:
	}
}

// Connected reports whether connID is a live session. Loop only.
func (h *Hub) Connected(connID string) bool {
	_, ok := h.sessions[connID]
	return ok
}

// Sessions returns the number of live sessions. Loop only.
func (h *Hub) Sessions() int {
	return len(h.sessions)
}

// QuickplayWaiting reports whether a connection holds the quickplay slot.
// Loop only.
func (h *Hub) QuickplayWaiting() bool {
	_, ok := h.match.Waiting()
	return ok
}

// Send queues one message for connID. A session whose buffer is full is
// disconnected after the current event. Loop only.
func (h *Hub) Send(connID string, action string, data interface{}) {
	s, ok := h.sessions[connID]
	if !ok || s.dropping {
		return
	}
	msg, err := json.Marshal(outbound{Action: action, Data: data})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to marshal outbound message")
		return
	}
	select {
	case s.send <- msg:
	default:
		log.Warn().Str("conn_id", connID).Msg("send buffer full, dropping session")
		s.dropping = true
		h.drops = append(h.drops, s)
	}
}

func (h *Hub) disconnect(s *Session) {
	if h.sessions[s.ID] != s {
		return
	}
	delete(h.sessions, s.ID)
	close(s.send)

	if h.match.Remove(s.ID) {
		log.Debug().Str("conn_id", s.ID).Msg("left quickplay queue")
	}
	if roomID, ok := h.bindings[s.ID]; ok {
		delete(h.bindings, s.ID)
		h.rooms.Leave(s.ID, roomID)
	}
	log.Info().Str("conn_id", s.ID).Dur("connected_for", h.clk.Since(s.ConnectedAt)).Msg("session closed")
}

// bind records roomID as the room connID occupies, leaving any other room
// first.
func (h *Hub) bind(connID, roomID string) {
	if prev, ok := h.bindings[connID]; ok && prev != roomID {
		h.rooms.Leave(connID, prev)
	}
	h.bindings[connID] = roomID
}

func (h *Hub) dispatch(in inbound) {
	s := in.session
	if h.sessions[s.ID] != s {
		return
	}

	var env envelope
	if err := json.Unmarshal(in.raw, &env); err != nil {
		log.Debug().Err(err).Str("conn_id", s.ID).Msg("malformed envelope")
		return
	}
	logger := log.With().Str("conn_id", s.ID).Str("action", env.Action).Logger()

	switch env.Action {
	case ActionJoinRoom:
		var req joinRequest
		if err := decodeStrict(env.Data, &req); err != nil {
			logger.Debug().Err(err).Msg("bad payload")
			return
		}
		h.join(s.ID, req.RoomID, game.ParseColor(req.Role))

	case ActionQuickplay:
		h.quickplay(s.ID)

	case ActionMove:
		var req moveRequest
		if err := decodeStrict(env.Data, &req); err != nil {
			logger.Debug().Err(err).Msg("bad payload")
			return
		}
		h.rooms.Move(s.ID, req.RoomID, game.MoveRequest{
			From:      req.Move.From,
			To:        req.Move.To,
			Promotion: req.Move.Promotion,
		})

	case ActionInitializeRoom:
		var req initializeRequest
		if err := decodeStrict(env.Data, &req); err != nil {
			logger.Debug().Err(err).Msg("bad payload")
			return
		}
		h.rooms.Initialize(req.RoomID, req.settings())

	case ActionResign, ActionOfferDraw, ActionAcceptDraw, ActionDeclineDraw, ActionResetGame, ActionCheckRoomStatus:
		var req roomRequest
		if err := decodeStrict(env.Data, &req); err != nil {
			logger.Debug().Err(err).Msg("bad payload")
			return
		}
		h.roomAction(s.ID, env.Action, req.RoomID)

	default:
		logger.Debug().Msg("unknown action")
	}
}

func (h *Hub) roomAction(connID, action, roomID string) {
	var ok bool
	switch action {
	case ActionResign:
		ok = h.rooms.Resign(connID, roomID)
	case ActionOfferDraw:
		ok = h.rooms.OfferDraw(connID, roomID)
	case ActionAcceptDraw:
		ok = h.rooms.AcceptDraw(connID, roomID)
	case ActionDeclineDraw:
		ok = h.rooms.DeclineDraw(connID, roomID)
	case ActionResetGame:
		ok = h.rooms.Reset(connID, roomID)
	case ActionCheckRoomStatus:
		ok = h.rooms.ReportStatus(connID, roomID)
	}
	if !ok {
		log.Debug().Str("conn_id", connID).Str("room_id", roomID).Str("action", action).Msg("ignored")
	}
}

func (h *Hub) join(connID, rawID string, preferred game.Color) {
	id, ok := room.NormalizeID(rawID)
	if !ok {
		log.Debug().Str("conn_id", connID).Str("room_id", rawID).Msg("join rejected")
		return
	}
	h.match.Remove(connID)
	if prev, bound := h.bindings[connID]; bound && prev != id {
		h.rooms.Leave(connID, prev)
		delete(h.bindings, connID)
	}
	role, ok := h.rooms.Join(connID, id, preferred)
	if !ok {
		return
	}
	h.bindings[connID] = id
	log.Info().Str("conn_id", connID).Str("room_id", id).Str("role", string(role)).Msg("joined")
}

func (h *Hub) quickplay(connID string) {
	res, err := h.match.Enqueue(connID)
	if err != nil {
		log.Error().Err(err).Str("conn_id", connID).Msg("quickplay failed")
		return
	}
	switch res.Outcome {
	case match.Waiting:
		h.Send(connID, shared.ActionLooking, shared.TextPayload{Text: "Looking for an opponent..."})
	case match.Searching:
		h.Send(connID, shared.ActionLooking, shared.TextPayload{Text: "Still looking for an opponent..."})
	case match.Matched:
		h.bind(res.First, res.RoomID)
		h.bind(res.Second, res.RoomID)
		h.Send(res.First, shared.ActionMatched, shared.MatchedPayload{RoomID: res.RoomID, Role: game.White})
		h.Send(res.Second, shared.ActionMatched, shared.MatchedPayload{RoomID: res.RoomID, Role: game.Black})
	}
}

// HandleWS upgrades the request and starts the session pumps.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s := newSession(h, conn)
	select {
	case h.register <- s:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go s.writePump()
	go s.readPump()
	log.Info().Str("conn_id", s.ID).Str("remote", c.ClientIP()).Msg("websocket connection established")
}
