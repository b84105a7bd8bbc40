package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"optimal-chess/internal/config"
	"optimal-chess/internal/game"
	"optimal-chess/internal/room"
	"optimal-chess/internal/shared"
	"optimal-chess/internal/store"
)

type testEnv struct {
	srv *httptest.Server
	hub *Hub
	mgr *room.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	fc := clockwork.NewFakeClock()
	mgr := room.NewManager(store.NewMemoryStore(), cfg.Game, game.NewEngine(), fc)
	hub := NewHub(mgr, cfg, fc)
	mgr.SetHub(hub)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testEnv{srv: srv, hub: hub, mgr: mgr}
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

type message struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

func (e *testEnv) dial(t *testing.T) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &client{t: t, conn: conn}
}

func (c *client) send(action string, data interface{}) {
	c.t.Helper()
	if err := c.conn.WriteJSON(map[string]interface{}{"action": action, "data": data}); err != nil {
		c.t.Fatalf("write %s: %v", action, err)
	}
}

func (c *client) sendRaw(raw string) {
	c.t.Helper()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *client) read() message {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m message
	if err := c.conn.ReadJSON(&m); err != nil {
		c.t.Fatalf("read: %v", err)
	}
	return m
}

// expect reads until a message with the given action arrives and decodes its
// data into v.
func (c *client) expect(action string, v interface{}) {
	c.t.Helper()
	for i := 0; i < 20; i++ {
		m := c.read()
		if m.Action != action {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(m.Data, v); err != nil {
				c.t.Fatalf("decode %s: %v", action, err)
			}
		}
		return
	}
	c.t.Fatalf("no %q message", action)
}

func (c *client) join(roomID string) shared.InitPayload {
	c.t.Helper()
	c.send(ActionJoinRoom, map[string]string{"roomId": roomID})
	var init shared.InitPayload
	c.expect(shared.ActionInit, &init)
	return init
}

func (e *testEnv) roomExists(t *testing.T, id string) bool {
	t.Helper()
	var ok bool
	if err := e.hub.Do(context.Background(), func() { _, ok = e.mgr.Get(id) }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	return ok
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestQuickplayPairsTwoConnections(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.dial(t), env.dial(t)

	a.send(ActionQuickplay, nil)
	var looking shared.TextPayload
	a.expect(shared.ActionLooking, &looking)
	if looking.Text == "" {
		t.Error("looking notice has no text")
	}
	var waiting bool
	if err := env.hub.Do(context.Background(), func() { waiting = env.hub.QuickplayWaiting() }); err != nil || !waiting {
		t.Errorf("QuickplayWaiting = %v, %v", waiting, err)
	}

	b.send(ActionQuickplay, nil)
	var ma, mb shared.MatchedPayload
	a.expect(shared.ActionMatched, &ma)
	b.expect(shared.ActionMatched, &mb)
	if ma.RoomID == "" || ma.RoomID != mb.RoomID {
		t.Fatalf("matched into different rooms: %q vs %q", ma.RoomID, mb.RoomID)
	}
	if ma.Role != game.White || mb.Role != game.Black {
		t.Fatalf("roles = %q/%q", ma.Role, mb.Role)
	}

	if init := a.join(ma.RoomID); init.Role != game.White {
		t.Errorf("a init role = %q", init.Role)
	}
	if init := b.join(mb.RoomID); init.Role != game.Black {
		t.Errorf("b init role = %q", init.Role)
	}

	a.send(ActionMove, map[string]interface{}{
		"roomId": ma.RoomID,
		"move":   map[string]string{"from": "e2", "to": "e4"},
	})
	var mv game.MoveResult
	b.expect(shared.ActionMove, &mv)
	if mv.SAN != "e4" || mv.Color != game.White {
		t.Errorf("move = %+v", mv)
	}
}

func TestMatchedPlayersAreBoundBeforeJoining(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.dial(t), env.dial(t)

	a.send(ActionQuickplay, nil)
	a.expect(shared.ActionLooking, nil)
	b.send(ActionQuickplay, nil)
	var m shared.MatchedPayload
	a.expect(shared.ActionMatched, &m)
	b.expect(shared.ActionMatched, nil)

	_ = a.conn.Close()
	_ = b.conn.Close()
	eventually(t, func() bool { return !env.roomExists(t, m.RoomID) }, "paired room not destroyed after both players vanished")
}

func TestIllegalAndMalformedInputIsSilent(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.dial(t), env.dial(t)

	a.join("SILENT")
	b.join("SILENT")
	a.expect(shared.ActionTimers, nil)

	b.send(ActionMove, map[string]interface{}{
		"roomId": "SILENT",
		"move":   map[string]string{"from": "e7", "to": "e5"},
	})
	a.send(ActionMove, map[string]interface{}{
		"roomId": "SILENT",
		"move":   map[string]string{"from": "e2", "to": "e5"},
	})
	a.send(ActionMove, map[string]interface{}{"roomId": "SILENT", "bogus": true})
	a.sendRaw(`not json`)
	a.send("teleport", map[string]string{"roomId": "SILENT"})

	a.send(ActionCheckRoomStatus, map[string]string{"roomId": "SILENT"})
	m := a.read()
	if m.Action != shared.ActionRoomStatus {
		t.Fatalf("got %q before the status reply; rejected input must not broadcast", m.Action)
	}
	var st shared.RoomStatusPayload
	if err := json.Unmarshal(m.Data, &st); err != nil || st.Status != shared.RoomStatusEmpty {
		t.Errorf("status = %+v, %v", st, err)
	}
}

func TestDisconnectVacatesSeatAndDestroysRoom(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.dial(t), env.dial(t), env.dial(t)

	a.join("DROP")
	b.join("DROP")
	if init := c.join("DROP"); !init.Spectator {
		t.Fatalf("third connection should spectate, got %+v", init)
	}

	_ = b.conn.Close()
	var info shared.InfoPayload
	a.expect(shared.ActionInfo, &info)
	if info.Text != "Black left the game" || info.Color != game.Black {
		t.Errorf("info = %+v", info)
	}

	if init := c.join("DROP"); init.Role != game.Black {
		t.Errorf("spectator did not take the vacated seat: %+v", init)
	}

	_ = a.conn.Close()
	_ = c.conn.Close()
	eventually(t, func() bool { return !env.roomExists(t, "DROP") }, "room not destroyed after every seat emptied")
}

func TestJoiningAnotherRoomLeavesThePrevious(t *testing.T) {
	env := newTestEnv(t)
	a := env.dial(t)

	a.join("FIRST")
	if init := a.join("second"); init.RoomID != "SECOND" || init.Role != game.White {
		t.Fatalf("init = %+v", init)
	}
	if env.roomExists(t, "FIRST") {
		t.Error("abandoned room still registered")
	}
}

func TestDoAfterShutdown(t *testing.T) {
	cfg := config.Default()
	fc := clockwork.NewFakeClock()
	mgr := room.NewManager(store.NewMemoryStore(), cfg.Game, game.NewEngine(), fc)
	hub := NewHub(mgr, cfg, fc)
	mgr.SetHub(hub)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	var n int
	if err := hub.Do(context.Background(), func() { n = hub.Sessions() + 1 }); err != nil || n != 1 {
		t.Fatalf("Do = %v, n = %d", err, n)
	}

	cancel()
	<-hub.done
	if err := hub.Do(context.Background(), func() {}); !errors.Is(err, ErrHubClosed) {
		t.Errorf("Do after shutdown = %v, want ErrHubClosed", err)
	}
}

func TestDoSkipsTaskWhoseCallerGaveUp(t *testing.T) {
	env := newTestEnv(t)

	release := make(chan struct{})
	env.hub.Post(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ran := false
	err := env.hub.Do(ctx, func() { ran = true })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Do = %v, want DeadlineExceeded", err)
	}
	close(release)

	var after bool
	if err := env.hub.Do(context.Background(), func() { after = ran }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if after {
		t.Error("task ran after its caller had returned")
	}
}

func TestOverflowingJoinerIsDroppedAfterJoin(t *testing.T) {
	cfg := config.Default()
	fc := clockwork.NewFakeClock()
	mgr := room.NewManager(store.NewMemoryStore(), cfg.Game, game.NewEngine(), fc)
	hub := NewHub(mgr, cfg, fc)
	mgr.SetHub(hub)

	// An unbuffered send channel with no writer makes every Send overflow.
	s := &Session{ID: "stalled", ConnectedAt: fc.Now(), hub: hub, send: make(chan []byte)}
	hub.sessions[s.ID] = s

	hub.join(s.ID, "STUCK", game.NoColor)
	if !hub.Connected(s.ID) {
		t.Fatal("session dropped in the middle of its own join")
	}
	hub.flushDrops()

	if hub.Connected(s.ID) {
		t.Error("stalled session still registered")
	}
	if roomID, ok := hub.bindings[s.ID]; ok {
		t.Errorf("binding to %q left behind", roomID)
	}
	if _, ok := mgr.Get("STUCK"); ok {
		t.Error("room still held by the dropped session")
	}
	if _, open := <-s.send; open {
		t.Error("send channel not closed")
	}
}
