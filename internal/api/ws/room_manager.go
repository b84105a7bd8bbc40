package ws

import (
	"time"

	"optimal-chess/internal/game"
	"optimal-chess/internal/shared"
)

// RoomManager is everything the hub asks of the room registry. All calls are
// made from the hub's event loop.
type RoomManager interface {
	Join(connID, roomID string, preferred game.Color) (game.Color, bool)
	Leave(connID, roomID string)
	Move(connID, roomID string, mv game.MoveRequest) bool
	Resign(connID, roomID string) bool
	OfferDraw(connID, roomID string) bool
	AcceptDraw(connID, roomID string) bool
	DeclineDraw(connID, roomID string) bool
	Reset(connID, roomID string) bool
	Initialize(roomID string, s shared.Settings) bool
	ReportStatus(connID, roomID string) bool
	CreatePaired(first, second string) (string, error)
	Sweep(now time.Time) int
	Shutdown()
}
