package game

import "errors"

// ErrIllegalMove is returned when a move is malformed or not legal in the
// current position.
var ErrIllegalMove = errors.New("illegal move")

// Color identifies one side of the board and, by extension, one seat.
type Color string

const (
	NoColor Color = ""
	White   Color = "w"
	Black   Color = "b"
)

func (c Color) Valid() bool { return c == White || c == Black }

func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return NoColor
}

// Name is the capitalised colour name used in player-facing results.
func (c Color) Name() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	}
	return ""
}

// ParseColor accepts "w"/"b" as well as the full colour names.
func ParseColor(s string) Color {
	switch s {
	case "w", "white", "White":
		return White
	case "b", "black", "Black":
		return Black
	}
	return NoColor
}

type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

type MoveFlags struct {
	Capture   bool   `json:"capture"`
	Castle    string `json:"castle,omitempty"` // "k" or "q"
	EnPassant bool   `json:"enPassant"`
	Promotion bool   `json:"promotion"`
	Check     bool   `json:"check"`
}

type MoveResult struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Promotion string    `json:"promotion,omitempty"`
	SAN       string    `json:"san"`
	Color     Color     `json:"color"`
	Flags     MoveFlags `json:"flags"`
}

type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeCheckmate Outcome = "checkmate"
	OutcomeDraw      Outcome = "draw"
	OutcomeGameOver  Outcome = "gameover"
)

type Status struct {
	Terminal bool    `json:"terminal"`
	Outcome  Outcome `json:"outcome,omitempty"`
	Winner   Color   `json:"winner,omitempty"`
	Method   string  `json:"method,omitempty"`
}

// Position is a live game owned by exactly one room.
type Position interface {
	FEN() string
	Turn() Color
	Status() Status
	Apply(mv MoveRequest) (MoveResult, error)
}

type Engine interface {
	NewGame() Position
	FromFEN(fen string) (Position, error)
}
