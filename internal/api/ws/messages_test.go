package ws

import (
	"encoding/json"
	"testing"

	"optimal-chess/internal/game"
)

func TestParseSeconds(t *testing.T) {
	cases := map[string]int{
		`300`:     300,
		`"600"`:   600,
		`" 90 "`:  90,
		`12.9`:    12,
		`0`:       0,
		`-5`:      0,
		`"ten"`:   0,
		`null`:    0,
		`{"a":1}`: 0,
		``:        0,
	}
	for in, want := range cases {
		if got := ParseSeconds(json.RawMessage(in)); got != want {
			t.Errorf("ParseSeconds(%s) = %d, want %d", in, got, want)
		}
	}
}

func TestDecodeStrict(t *testing.T) {
	var req roomRequest
	if err := decodeStrict(json.RawMessage(`{"roomId":"ABC"}`), &req); err != nil || req.RoomID != "ABC" {
		t.Fatalf("decode = %+v, %v", req, err)
	}
	if err := decodeStrict(json.RawMessage(`{"roomId":"ABC","extra":1}`), &req); err == nil {
		t.Error("unknown field accepted")
	}
	if err := decodeStrict(json.RawMessage(`{"roomId":5}`), &req); err == nil {
		t.Error("wrong type accepted")
	}
	if err := decodeStrict(nil, &req); err != errEmptyPayload {
		t.Errorf("empty payload err = %v", err)
	}
	if err := decodeStrict(json.RawMessage(`{"roomId":"A"}{"roomId":"B"}`), &req); err == nil {
		t.Error("trailing data accepted")
	}
}

func TestJoinRequestShape(t *testing.T) {
	var req joinRequest
	if err := decodeStrict(json.RawMessage(`{"roomId":"X","role":"b"}`), &req); err != nil || req.RoomID != "X" || game.ParseColor(req.Role) != game.Black {
		t.Errorf("join = %+v, %v", req, err)
	}
	if err := decodeStrict(json.RawMessage(`"abc123"`), &req); err == nil {
		t.Error("bare room id accepted")
	}
	if err := decodeStrict(json.RawMessage(`{"room":"X"}`), &req); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestInitializeSettings(t *testing.T) {
	var req initializeRequest
	raw := json.RawMessage(`{"roomId":"R","settings":{"time":"300","color":"b"}}`)
	if err := decodeStrict(raw, &req); err != nil {
		t.Fatal(err)
	}
	s := req.settings()
	if s.Time != 300 || s.Color != game.Black {
		t.Errorf("settings = %+v", s)
	}
}
