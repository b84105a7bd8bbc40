package room

import (
	"sort"
	"strings"
	"time"

	"optimal-chess/internal/clock"
	"optimal-chess/internal/game"
	"optimal-chess/internal/shared"
)

var seatOrder = [...]game.Color{game.White, game.Black}

// DrawOffer is a pending draw proposal made by the holder of one seat.
type DrawOffer struct {
	By    string
	Color game.Color
}

// Room is one game's full state. It is owned by the Manager and only read or
// mutated on the Manager's goroutine.
type Room struct {
	ID         string
	Game       game.Position
	White      string
	Black      string
	Spectators map[string]struct{}
	Clock      *clock.Clock
	Offer      *DrawOffer
	Settings   *shared.Settings
	Result     *shared.Result
	CreatedAt  time.Time

	// Started is set by the first accepted move; Paused marks a clock that
	// was stopped because a seat emptied mid-game.
	Started bool
	Paused  bool
}

type SeatsView struct {
	White bool `json:"w"`
	Black bool `json:"b"`
}

// View is a read-only summary for HTTP callers.
type View struct {
	ID         string           `json:"roomId"`
	Status     string           `json:"status"`
	FEN        string           `json:"fen"`
	Turn       game.Color       `json:"turn"`
	Timers     clock.Timers     `json:"timers"`
	Seats      SeatsView        `json:"seats"`
	Spectators int              `json:"spectators"`
	Settings   *shared.Settings `json:"settings,omitempty"`
	Result     *shared.Result   `json:"result,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// NormalizeID upper-cases a room identifier and rejects anything that is not
// a short run of letters, digits, dashes or underscores.
func NormalizeID(raw string) (string, bool) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if id == "" || len(id) > 32 {
		return "", false
	}
	for _, ch := range id {
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
		default:
			return "", false
		}
	}
	return id, true
}

func (r *Room) Seat(c game.Color) string {
	switch c {
	case game.White:
		return r.White
	case game.Black:
		return r.Black
	}
	return ""
}

func (r *Room) setSeat(c game.Color, connID string) {
	switch c {
	case game.White:
		r.White = connID
	case game.Black:
		r.Black = connID
	}
}

// SeatOf returns the colour held by connID, or NoColor.
func (r *Room) SeatOf(connID string) game.Color {
	if connID == "" {
		return game.NoColor
	}
	for _, c := range seatOrder {
		if r.Seat(c) == connID {
			return c
		}
	}
	return game.NoColor
}

func (r *Room) IsSpectator(connID string) bool {
	_, ok := r.Spectators[connID]
	return ok
}

func (r *Room) Full() bool  { return r.White != "" && r.Black != "" }
func (r *Room) Empty() bool { return r.White == "" && r.Black == "" }
func (r *Room) Over() bool  { return r.Result != nil }

// Members lists every bound connection: seats first, then spectators in a
// stable order.
func (r *Room) Members() []string {
	out := make([]string, 0, 2+len(r.Spectators))
	for _, c := range seatOrder {
		if id := r.Seat(c); id != "" {
			out = append(out, id)
		}
	}
	spect := make([]string, 0, len(r.Spectators))
	for id := range r.Spectators {
		spect = append(spect, id)
	}
	sort.Strings(spect)
	return append(out, spect...)
}

func (r *Room) Status() string {
	if r.Settings == nil {
		return shared.RoomStatusEmpty
	}
	return shared.RoomStatusWaiting
}

func (r *Room) snapshot(connID string) shared.InitPayload {
	role := r.SeatOf(connID)
	return shared.InitPayload{
		RoomID:    r.ID,
		Role:      role,
		Spectator: role == game.NoColor,
		FEN:       r.Game.FEN(),
		Turn:      r.Game.Turn(),
		Timers:    r.Clock.Remaining(),
		Settings:  r.Settings,
		Result:    r.Result,
	}
}

func (r *Room) View() View {
	return View{
		ID:         r.ID,
		Status:     r.Status(),
		FEN:        r.Game.FEN(),
		Turn:       r.Game.Turn(),
		Timers:     r.Clock.Remaining(),
		Seats:      SeatsView{White: r.White != "", Black: r.Black != ""},
		Spectators: len(r.Spectators),
		Settings:   r.Settings,
		Result:     r.Result,
		CreatedAt:  r.CreatedAt,
	}
}
