package room

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"optimal-chess/internal/clock"
	"optimal-chess/internal/config"
	"optimal-chess/internal/game"
	"optimal-chess/internal/shared"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNoRoomCode   = errors.New("could not allocate a free room code")
)

type Store interface {
	GetRoom(code string) (*Room, bool)
	SaveRoom(r *Room)
	DeleteRoom(code string)
	Rooms() []*Room
	Len() int
}

type Stats struct {
	Rooms         int `json:"rooms"`
	SeatedPlayers int `json:"seatedPlayers"`
	Spectators    int `json:"spectators"`
	RunningClocks int `json:"runningClocks"`
}

// Manager is the room registry and the only writer of room state. Every
// method must be called from the goroutine that owns the Manager (the
// gateway's event loop); clock ticks come back through Broadcaster.Post.
type Manager struct {
	store  Store
	cfg    config.GameConfig
	engine game.Engine
	clk    clockwork.Clock
	hub    Broadcaster
}

func NewManager(s Store, cfg config.GameConfig, engine game.Engine, clk clockwork.Clock) *Manager {
	return &Manager{store: s, cfg: cfg, engine: engine, clk: clk}
}

func (m *Manager) SetHub(hub Broadcaster) {
	m.hub = hub
}

func (m *Manager) newRoom(code string) *Room {
	return &Room{
		ID:         code,
		Game:       m.engine.NewGame(),
		Spectators: make(map[string]struct{}),
		Clock:      clock.New(m.clk, m.cfg.TickInterval, m.cfg.DefaultClockSeconds),
		CreatedAt:  m.clk.Now(),
	}
}

// Get looks a room up without creating it.
func (m *Manager) Get(rawID string) (*Room, bool) {
	id, ok := NormalizeID(rawID)
	if !ok {
		return nil, false
	}
	return m.store.GetRoom(id)
}

// GetOrCreate returns the room for rawID, creating an unconfigured one if it
// does not exist. ok is false only for an unusable identifier.
func (m *Manager) GetOrCreate(rawID string) (*Room, bool) {
	id, ok := NormalizeID(rawID)
	if !ok {
		return nil, false
	}
	if r, ok := m.store.GetRoom(id); ok {
		return r, true
	}
	r := m.newRoom(id)
	m.store.SaveRoom(r)
	log.Debug().Str("room_id", id).Msg("room created")
	return r, true
}

// Create allocates a room under a fresh random code.
func (m *Manager) Create() (*Room, error) {
	for i := 0; i < 64; i++ {
		code := randCode(m.cfg.RoomCodeLength)
		if _, taken := m.store.GetRoom(code); taken {
			continue
		}
		r := m.newRoom(code)
		m.store.SaveRoom(r)
		log.Debug().Str("room_id", code).Msg("room allocated")
		return r, nil
	}
	return nil, ErrNoRoomCode
}

// CreatePaired allocates a room and seats first as White and second as
// Black. Used by quickplay.
func (m *Manager) CreatePaired(first, second string) (string, error) {
	r, err := m.Create()
	if err != nil {
		return "", fmt.Errorf("create paired room: %w", err)
	}
	r.White, r.Black = first, second
	return r.ID, nil
}

// DestroyIfEmpty removes the room when both seats are vacant. Safe to call
// redundantly.
func (m *Manager) DestroyIfEmpty(rawID string) bool {
	r, ok := m.Get(rawID)
	if !ok || !r.Empty() {
		return false
	}
	m.destroy(r)
	return true
}

func (m *Manager) destroy(r *Room) {
	r.Clock.Stop()
	m.store.DeleteRoom(r.ID)
	log.Info().Str("room_id", r.ID).Msg("room destroyed")
}

// Sweep destroys rooms nobody ever sat or watched in that are older than
// the idle TTL.
func (m *Manager) Sweep(now time.Time) int {
	if m.cfg.IdleRoomTTL <= 0 {
		return 0
	}
	n := 0
	for _, r := range m.store.Rooms() {
		if r.Empty() && len(r.Spectators) == 0 && now.Sub(r.CreatedAt) >= m.cfg.IdleRoomTTL {
			m.destroy(r)
			n++
		}
	}
	return n
}

// Shutdown stops every running clock.
func (m *Manager) Shutdown() {
	for _, r := range m.store.Rooms() {
		r.Clock.Stop()
	}
}

func (m *Manager) Stats() Stats {
	st := Stats{Rooms: m.store.Len()}
	for _, r := range m.store.Rooms() {
		for _, c := range seatOrder {
			if r.Seat(c) != "" {
				st.SeatedPlayers++
			}
		}
		st.Spectators += len(r.Spectators)
		if r.Clock.Running() {
			st.RunningClocks++
		}
	}
	return st
}

func (m *Manager) send(connID, action string, data interface{}) {
	if m.hub == nil {
		return
	}
	m.hub.Send(connID, action, data)
}

func (m *Manager) broadcast(r *Room, action string, data interface{}) {
	for _, id := range r.Members() {
		m.send(id, action, data)
	}
}

func (m *Manager) connected(connID string) bool {
	return m.hub != nil && m.hub.Connected(connID)
}

// Join seats connID in the room, or adds it as a spectator when both seats
// are taken, and sends it the full snapshot. Seats held by connections that
// are gone are reclaimed first.
func (m *Manager) Join(connID, rawID string, preferred game.Color) (game.Color, bool) {
	r, ok := m.GetOrCreate(rawID)
	if !ok {
		return game.NoColor, false
	}

	if c := r.SeatOf(connID); c != game.NoColor {
		m.send(connID, shared.ActionInit, r.snapshot(connID))
		return c, true
	}

	for _, c := range seatOrder {
		if holder := r.Seat(c); holder != "" && !m.connected(holder) {
			log.Info().Str("room_id", r.ID).Str("conn_id", holder).Str("seat", string(c)).Msg("reclaiming seat from dead connection")
			m.vacate(r, c)
		}
	}

	wasFull := r.Full()
	delete(r.Spectators, connID)

	role := game.NoColor
	if preferred.Valid() && r.Seat(preferred) == "" {
		role = preferred
	} else {
		order := seatOrder
		if r.Settings != nil && r.Settings.Color == game.Black && r.Empty() {
			order = [...]game.Color{game.Black, game.White}
		}
		for _, c := range order {
			if r.Seat(c) == "" {
				role = c
				break
			}
		}
	}

	if role != game.NoColor {
		r.setSeat(role, connID)
	} else {
		r.Spectators[connID] = struct{}{}
	}
	log.Debug().Str("room_id", r.ID).Str("conn_id", connID).Str("role", string(role)).Msg("joined room")

	m.send(connID, shared.ActionInit, r.snapshot(connID))

	if !wasFull && r.Full() {
		m.broadcast(r, shared.ActionBoardState, r.Game.FEN())
		m.broadcast(r, shared.ActionTimers, r.Clock.Remaining())
		if r.Paused && !r.Over() {
			r.Paused = false
			m.startClock(r)
		}
	}
	return role, true
}

// vacate empties seat c, withdrawing that seat's draw offer and pausing a
// running clock.
func (m *Manager) vacate(r *Room, c game.Color) {
	r.setSeat(c, "")
	if r.Offer != nil && r.Offer.Color == c {
		r.Offer = nil
	}
	if r.Clock.Running() {
		r.Clock.Stop()
		r.Paused = true
	}
}

// Leave removes connID from the room it occupies and destroys the room once
// both seats are vacant.
func (m *Manager) Leave(connID, rawID string) {
	r, ok := m.Get(rawID)
	if !ok {
		return
	}

	if c := r.SeatOf(connID); c != game.NoColor {
		m.vacate(r, c)
		m.broadcast(r, shared.ActionInfo, shared.InfoPayload{Text: c.Name() + " left the game", Color: c})
		m.DestroyIfEmpty(r.ID)
		return
	}
	if r.IsSpectator(connID) {
		delete(r.Spectators, connID)
		m.broadcast(r, shared.ActionInfo, shared.InfoPayload{Text: "A spectator left"})
	}
}

// startClock restarts the clock for the side to move, or leaves it stopped
// when the room cannot run one.
func (m *Manager) startClock(r *Room) bool {
	if m.hub == nil || !r.Full() || r.Over() {
		r.Clock.Stop()
		return false
	}
	id, c := r.ID, r.Clock
	return c.Restart(r.Game.Turn(), func(gen uint64) {
		m.hub.Post(func() { m.tick(id, c, gen) })
	})
}

func (m *Manager) tick(id string, c *clock.Clock, gen uint64) {
	r, ok := m.store.GetRoom(id)
	if !ok || r.Clock != c {
		return
	}
	res := c.Tick(gen)
	if !res.Applied {
		return
	}
	m.broadcast(r, shared.ActionTimers, c.Remaining())
	if res.Expired {
		winner := res.Side.Opponent()
		m.finish(r, &shared.Result{
			Result: winner.Name(),
			Winner: winner,
			Reason: "timeout",
			Text:   winner.Name() + " (timeout)",
		})
	}
}

func (m *Manager) finish(r *Room, res *shared.Result) {
	r.Clock.Stop()
	r.Paused = false
	r.Offer = nil
	r.Result = res
	log.Info().Str("room_id", r.ID).Str("result", res.Result).Str("reason", res.Reason).Msg("game over")
	m.broadcast(r, shared.ActionGameOver, res)
}

func engineResult(st game.Status) *shared.Result {
	switch st.Outcome {
	case game.OutcomeCheckmate:
		return &shared.Result{Result: st.Winner.Name(), Winner: st.Winner, Reason: "checkmate", Text: st.Winner.Name()}
	case game.OutcomeDraw:
		return &shared.Result{Result: "Draw", Reason: st.Method, Text: "Draw"}
	}
	return &shared.Result{Result: "Game Over", Winner: st.Winner, Reason: st.Method, Text: "Game Over"}
}

// Move applies mv for connID if it holds the seat of the side to move. Every
// rejection is silent.
func (m *Manager) Move(connID, rawID string, mv game.MoveRequest) bool {
	r, ok := m.Get(rawID)
	if !ok || r.Over() {
		return false
	}
	turn := r.Game.Turn()
	if connID == "" || r.Seat(turn) != connID {
		return false
	}

	res, err := r.Game.Apply(mv)
	if err != nil {
		log.Debug().Err(err).Str("room_id", r.ID).Str("conn_id", connID).Msg("move rejected")
		return false
	}
	r.Started = true

	m.broadcast(r, shared.ActionMove, res)
	m.broadcast(r, shared.ActionBoardState, r.Game.FEN())

	if st := r.Game.Status(); st.Terminal {
		r.Clock.Stop()
		m.broadcast(r, shared.ActionTimers, r.Clock.Remaining())
		m.finish(r, engineResult(st))
		return true
	}

	r.Paused = !m.startClock(r) && !r.Full()
	m.broadcast(r, shared.ActionTimers, r.Clock.Remaining())
	return true
}

// Resign ends the game immediately in favour of the other seat.
func (m *Manager) Resign(connID, rawID string) bool {
	r, ok := m.Get(rawID)
	if !ok || r.Over() {
		return false
	}
	c := r.SeatOf(connID)
	if c == game.NoColor {
		return false
	}
	winner := c.Opponent()
	m.finish(r, &shared.Result{
		Result: winner.Name(),
		Winner: winner,
		Reason: "resignation",
		Text:   c.Name() + " resigned",
	})
	return true
}

func (m *Manager) OfferDraw(connID, rawID string) bool {
	r, ok := m.Get(rawID)
	if !ok || r.Over() {
		return false
	}
	c := r.SeatOf(connID)
	if c == game.NoColor {
		return false
	}
	r.Offer = &DrawOffer{By: connID, Color: c}
	if opp := r.Seat(c.Opponent()); opp != "" {
		m.send(opp, shared.ActionDrawOffered, shared.DrawPayload{By: c})
	}
	return true
}

// AcceptDraw ends the game as a draw when an offer is pending. Any seat
// holder may accept, including the one who made the offer.
func (m *Manager) AcceptDraw(connID, rawID string) bool {
	r, ok := m.Get(rawID)
	if !ok || r.Over() || r.Offer == nil {
		return false
	}
	if r.SeatOf(connID) == game.NoColor {
		return false
	}
	m.broadcast(r, shared.ActionDrawAccepted, shared.DrawPayload{By: r.Offer.Color})
	m.finish(r, &shared.Result{Result: "Draw", Reason: "agreement", Text: "Draw"})
	return true
}

func (m *Manager) DeclineDraw(connID, rawID string) bool {
	r, ok := m.Get(rawID)
	if !ok || r.Offer == nil {
		return false
	}
	if r.SeatOf(connID) == game.NoColor {
		return false
	}
	offer := r.Offer
	r.Offer = nil
	m.send(offer.By, shared.ActionDrawDeclined, shared.DrawPayload{By: offer.Color})
	return true
}

func (m *Manager) clockSeconds(r *Room) int {
	if r.Settings != nil && r.Settings.Time > 0 {
		return r.Settings.Time
	}
	return m.cfg.DefaultClockSeconds
}

// Reset puts the room back to the initial position with full clocks.
func (m *Manager) Reset(connID, rawID string) bool {
	r, ok := m.Get(rawID)
	if !ok || r.SeatOf(connID) == game.NoColor {
		return false
	}
	r.Game = m.engine.NewGame()
	r.Clock.Reset(m.clockSeconds(r))
	r.Result = nil
	r.Offer = nil
	r.Started = false
	r.Paused = false

	m.broadcast(r, shared.ActionReset, struct{}{})
	m.broadcast(r, shared.ActionBoardState, r.Game.FEN())
	m.broadcast(r, shared.ActionTimers, r.Clock.Remaining())
	return true
}

// Initialize applies the one-time room settings. A missing room, a room that
// is already configured, or a game already under way is left untouched.
func (m *Manager) Initialize(rawID string, s shared.Settings) bool {
	r, ok := m.Get(rawID)
	if !ok || r.Settings != nil || r.Started {
		return false
	}
	if s.Time <= 0 {
		s.Time = m.cfg.DefaultClockSeconds
	}
	if !s.Color.Valid() {
		s.Color = game.NoColor
	}
	r.Settings = &s
	r.Clock.Reset(s.Time)
	m.broadcast(r, shared.ActionTimers, r.Clock.Remaining())
	return true
}

// ReportStatus tells connID whether the room still needs configuring.
func (m *Manager) ReportStatus(connID, rawID string) bool {
	r, ok := m.GetOrCreate(rawID)
	if !ok {
		return false
	}
	m.send(connID, shared.ActionRoomStatus, shared.RoomStatusPayload{
		RoomID:   r.ID,
		Status:   r.Status(),
		Settings: r.Settings,
	})
	return true
}

const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randCode(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}
