package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"optimal-chess/internal/game"
	"optimal-chess/internal/shared"
)

// Inbound actions.
const (
	ActionJoinRoom        = "joinRoom"
	ActionQuickplay       = "enterQuickplay"
	ActionMove            = "move"
	ActionResign          = "resign"
	ActionOfferDraw       = "offerDraw"
	ActionAcceptDraw      = "acceptDraw"
	ActionDeclineDraw     = "declineDraw"
	ActionResetGame       = "resetgame"
	ActionCheckRoomStatus = "check_room_status"
	ActionInitializeRoom  = "initialize_room"
)

var errEmptyPayload = errors.New("empty payload")

type envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Action string      `json:"action"`
	Data   interface{} `json:"data"`
}

type roomRequest struct {
	RoomID string `json:"roomId"`
}

type joinRequest struct {
	RoomID string `json:"roomId"`
	Role   string `json:"role,omitempty"`
}

type moveRequest struct {
	RoomID string `json:"roomId"`
	Move   struct {
		From      string `json:"from"`
		To        string `json:"to"`
		Promotion string `json:"promotion,omitempty"`
	} `json:"move"`
}

type initializeRequest struct {
	RoomID   string `json:"roomId"`
	Settings struct {
		Time  json.RawMessage `json:"time"`
		Color string          `json:"color,omitempty"`
	} `json:"settings"`
}

func (r initializeRequest) settings() shared.Settings {
	return shared.Settings{
		Time:  ParseSeconds(r.Settings.Time),
		Color: game.ParseColor(r.Settings.Color),
	}
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(data json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyPayload
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after payload")
	}
	return nil
}

// ParseSeconds reads a clock duration sent either as a JSON number or as a
// numeric string. Anything else yields 0.
func ParseSeconds(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f <= 0 || f > math.MaxInt32 {
			return 0
		}
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
