package game

import (
	"errors"
	"testing"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func mustFEN(t *testing.T, fen string) Position {
	t.Helper()
	p, err := NewEngine().FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return p
}

func TestNewGame(t *testing.T) {
	p := NewEngine().NewGame()
	if p.FEN() != startFEN {
		t.Errorf("FEN = %q", p.FEN())
	}
	if p.Turn() != White {
		t.Errorf("Turn = %q, want w", p.Turn())
	}
	if p.Status().Terminal {
		t.Error("new game must not be terminal")
	}
}

func TestApplyLegalMove(t *testing.T) {
	p := NewEngine().NewGame()
	res, err := p.Apply(MoveRequest{From: "e2", To: "e4", Promotion: "q"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.SAN != "e4" || res.Color != White {
		t.Errorf("result = %+v", res)
	}
	if res.Promotion != "" || res.Flags.Promotion {
		t.Errorf("non-promoting move must ignore the promotion letter, got %+v", res)
	}
	if p.Turn() != Black {
		t.Errorf("Turn = %q, want b", p.Turn())
	}
}

func TestApplyIllegalMove(t *testing.T) {
	p := NewEngine().NewGame()
	before := p.FEN()
	for _, mv := range []MoveRequest{
		{From: "e2", To: "e5"},
		{From: "e7", To: "e5"},
		{From: "zz", To: "e4"},
		{},
	} {
		if _, err := p.Apply(mv); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("Apply(%+v) err = %v, want ErrIllegalMove", mv, err)
		}
	}
	if p.FEN() != before {
		t.Error("rejected moves must leave the position unchanged")
	}
}

func TestCheckmate(t *testing.T) {
	p := NewEngine().NewGame()
	for _, mv := range []MoveRequest{
		{From: "f2", To: "f3"},
		{From: "e7", To: "e5"},
		{From: "g2", To: "g4"},
		{From: "d8", To: "h4"},
	} {
		if _, err := p.Apply(mv); err != nil {
			t.Fatalf("Apply(%+v): %v", mv, err)
		}
	}
	st := p.Status()
	if !st.Terminal || st.Outcome != OutcomeCheckmate || st.Winner != Black {
		t.Errorf("status = %+v, want checkmate won by black", st)
	}
	if _, err := p.Apply(MoveRequest{From: "a2", To: "a3"}); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("move after mate err = %v", err)
	}
}

func TestStalemateIsDraw(t *testing.T) {
	p := mustFEN(t, "k7/8/8/2Q5/8/8/8/7K w - - 0 1")
	if _, err := p.Apply(MoveRequest{From: "c5", To: "b6"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	st := p.Status()
	if !st.Terminal || st.Outcome != OutcomeDraw || st.Winner != NoColor || st.Method != "stalemate" {
		t.Errorf("status = %+v, want stalemate draw", st)
	}
}

func TestPromotion(t *testing.T) {
	p := mustFEN(t, "8/P7/8/8/8/8/8/k6K w - - 0 1")
	res, err := p.Apply(MoveRequest{From: "a7", To: "a8"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !res.Flags.Promotion || res.Promotion != "q" {
		t.Errorf("bare promotion should default to queen, got %+v", res)
	}

	p = mustFEN(t, "8/P7/8/8/8/8/8/k6K w - - 0 1")
	res, err = p.Apply(MoveRequest{From: "a7", To: "a8", Promotion: "N"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Promotion != "n" {
		t.Errorf("Promotion = %q, want n", res.Promotion)
	}
}

func TestSpecialMoveFlags(t *testing.T) {
	p := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	res, err := p.Apply(MoveRequest{From: "e1", To: "g1"})
	if err != nil {
		t.Fatalf("castle: %v", err)
	}
	if res.Flags.Castle != "k" || res.SAN != "O-O" {
		t.Errorf("castle result = %+v", res)
	}

	p = mustFEN(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	res, err = p.Apply(MoveRequest{From: "e5", To: "d6"})
	if err != nil {
		t.Fatalf("en passant: %v", err)
	}
	if !res.Flags.EnPassant || !res.Flags.Capture {
		t.Errorf("en passant flags = %+v", res.Flags)
	}
}

func TestColor(t *testing.T) {
	if White.Opponent() != Black || Black.Opponent() != White || NoColor.Opponent() != NoColor {
		t.Error("Opponent mapping is wrong")
	}
	if ParseColor("white") != White || ParseColor("b") != Black || ParseColor("x") != NoColor {
		t.Error("ParseColor mapping is wrong")
	}
	if White.Name() != "White" {
		t.Errorf("Name = %q", White.Name())
	}
}
