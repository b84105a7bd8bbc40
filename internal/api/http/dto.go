package http

import "optimal-chess/internal/room"

// CreateRoomRequest is the optional body of POST /api/rooms.
type CreateRoomRequest struct {
	Settings *SettingsRequest `json:"settings"`
}

// SettingsRequest carries the one-time room configuration.
type SettingsRequest struct {
	Time  int    `json:"time"`
	Color string `json:"color"`
}

type CreateRoomResponse struct {
	RoomID string    `json:"roomId"`
	URL    string    `json:"url"`
	Room   room.View `json:"room"`
}

type ClockDefaultsResponse struct {
	DefaultSeconds int   `json:"defaultSeconds"`
	TickMillis     int64 `json:"tickMillis"`
}

type StatsResponse struct {
	room.Stats
	Sessions         int  `json:"sessions"`
	QuickplayWaiting bool `json:"quickplayWaiting"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
