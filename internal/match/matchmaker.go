// Package match pairs quickplay requests two at a time.
package match

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Outcome int

const (
	Waiting Outcome = iota
	Searching
	Matched
)

func (o Outcome) String() string {
	switch o {
	case Waiting:
		return "waiting"
	case Searching:
		return "searching"
	case Matched:
		return "matched"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// RoomCreator allocates a room with first seated White and second Black.
type RoomCreator interface {
	CreatePaired(first, second string) (string, error)
}

type Result struct {
	Outcome Outcome
	RoomID  string
	First   string
	Second  string
}

type waiter struct {
	connID     string
	enqueuedAt time.Time
}

// Matchmaker holds at most one waiting connection. Like the room manager it
// is driven from a single goroutine and does no locking.
type Matchmaker struct {
	rooms RoomCreator
	alive func(connID string) bool
	clk   clockwork.Clock
	slot  *waiter
}

func New(rooms RoomCreator, alive func(connID string) bool, clk clockwork.Clock) *Matchmaker {
	return &Matchmaker{rooms: rooms, alive: alive, clk: clk}
}

func (m *Matchmaker) Enqueue(connID string) (Result, error) {
	if m.slot != nil && m.slot.connID == connID {
		return Result{Outcome: Searching}, nil
	}

	if m.slot != nil && !m.alive(m.slot.connID) {
		log.Debug().Str("conn_id", m.slot.connID).Msg("discarding dead quickplay waiter")
		m.slot = nil
	}

	if m.slot == nil {
		m.slot = &waiter{connID: connID, enqueuedAt: m.clk.Now()}
		return Result{Outcome: Waiting}, nil
	}

	first := m.slot.connID
	roomID, err := m.rooms.CreatePaired(first, connID)
	if err != nil {
		return Result{}, fmt.Errorf("pair %s with %s: %w", first, connID, err)
	}
	log.Info().
		Str("room_id", roomID).
		Str("white", first).
		Str("black", connID).
		Dur("waited", m.clk.Since(m.slot.enqueuedAt)).
		Msg("quickplay matched")
	m.slot = nil
	return Result{Outcome: Matched, RoomID: roomID, First: first, Second: connID}, nil
}

// Remove clears the slot if connID holds it.
func (m *Matchmaker) Remove(connID string) bool {
	if m.slot == nil || m.slot.connID != connID {
		return false
	}
	m.slot = nil
	return true
}

// Waiting reports the connection currently holding the slot.
func (m *Matchmaker) Waiting() (string, bool) {
	if m.slot == nil {
		return "", false
	}
	return m.slot.connID, true
}
