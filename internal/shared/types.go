package shared

import (
	"optimal-chess/internal/clock"
	"optimal-chess/internal/game"
)

// Outbound actions. Inbound actions live with the gateway that decodes them.
const (
	ActionInit         = "init"
	ActionBoardState   = "boardstate"
	ActionMove         = "move"
	ActionTimers       = "timers"
	ActionGameOver     = "gameover"
	ActionLooking      = "looking"
	ActionMatched      = "matched"
	ActionDrawOffered  = "drawOffered"
	ActionDrawAccepted = "drawAccepted"
	ActionDrawDeclined = "drawDeclined"
	ActionInfo         = "info"
	ActionReset        = "reset"
	ActionRoomStatus   = "room_status"
)

const (
	RoomStatusEmpty   = "empty"   // unconfigured
	RoomStatusWaiting = "waiting" // configured, waiting for players
)

type Settings struct {
	Time  int        `json:"time"`
	Color game.Color `json:"color,omitempty"`
}

type InitPayload struct {
	RoomID    string       `json:"roomId"`
	Role      game.Color   `json:"role"`
	Spectator bool         `json:"spectator"`
	FEN       string       `json:"fen"`
	Turn      game.Color   `json:"turn"`
	Timers    clock.Timers `json:"timers"`
	Settings  *Settings    `json:"settings,omitempty"`
	Result    *Result      `json:"result,omitempty"`
}

// Result is a terminal game result. Text keeps the legacy one-line form
// ("White", "Black (timeout)", "Draw", "Game Over") older clients render.
type Result struct {
	Result string     `json:"result"`
	Winner game.Color `json:"winner,omitempty"`
	Reason string     `json:"reason"`
	Text   string     `json:"text"`
}

type MatchedPayload struct {
	RoomID string     `json:"roomId"`
	Role   game.Color `json:"role"`
}

type TextPayload struct {
	Text string `json:"text"`
}

type InfoPayload struct {
	Text  string     `json:"text"`
	Color game.Color `json:"color,omitempty"`
}

type DrawPayload struct {
	By game.Color `json:"by"`
}

type RoomStatusPayload struct {
	RoomID   string    `json:"roomId"`
	Status   string    `json:"status"`
	Settings *Settings `json:"settings,omitempty"`
}
