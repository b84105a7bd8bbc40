package game

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// ChessEngine adapts github.com/notnil/chess to the Engine interface.
type ChessEngine struct{}

func NewEngine() ChessEngine { return ChessEngine{} }

func (ChessEngine) NewGame() Position {
	return &chessPosition{g: chess.NewGame()}
}

func (ChessEngine) FromFEN(fen string) (Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	return &chessPosition{g: chess.NewGame(opt)}, nil
}

type chessPosition struct {
	g *chess.Game
}

func (p *chessPosition) FEN() string { return p.g.Position().String() }

func (p *chessPosition) Turn() Color { return fromChessColor(p.g.Position().Turn()) }

func (p *chessPosition) Status() Status {
	var winner Color
	switch p.g.Outcome() {
	case chess.NoOutcome:
		return Status{}
	case chess.WhiteWon:
		winner = White
	case chess.BlackWon:
		winner = Black
	}

	method := p.g.Method()
	st := Status{Terminal: true, Winner: winner, Method: methodName(method)}
	switch {
	case method == chess.Checkmate:
		st.Outcome = OutcomeCheckmate
	case p.g.Outcome() == chess.Draw:
		st.Outcome = OutcomeDraw
	default:
		st.Outcome = OutcomeGameOver
	}
	return st
}

func (p *chessPosition) Apply(req MoveRequest) (MoveResult, error) {
	if p.g.Outcome() != chess.NoOutcome {
		return MoveResult{}, fmt.Errorf("%w: game is over", ErrIllegalMove)
	}

	from := strings.ToLower(strings.TrimSpace(req.From))
	to := strings.ToLower(strings.TrimSpace(req.To))
	promo := strings.ToLower(strings.TrimSpace(req.Promotion))
	if promo == "" {
		promo = chess.Queen.String()
	}

	before := p.g.Position()
	var mv *chess.Move
	for _, cand := range p.g.ValidMoves() {
		if cand.S1().String() != from || cand.S2().String() != to {
			continue
		}
		// Promotion letters are ignored for non-promoting moves.
		if cand.Promo() != chess.NoPieceType && cand.Promo().String() != promo {
			continue
		}
		mv = cand
		break
	}
	if mv == nil {
		return MoveResult{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}

	res := MoveResult{
		From:  from,
		To:    to,
		SAN:   chess.AlgebraicNotation{}.Encode(before, mv),
		Color: fromChessColor(before.Turn()),
		Flags: MoveFlags{
			Capture:   mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant),
			EnPassant: mv.HasTag(chess.EnPassant),
			Check:     mv.HasTag(chess.Check),
			Promotion: mv.Promo() != chess.NoPieceType,
		},
	}
	if res.Flags.Promotion {
		res.Promotion = mv.Promo().String()
	}
	switch {
	case mv.HasTag(chess.KingSideCastle):
		res.Flags.Castle = "k"
	case mv.HasTag(chess.QueenSideCastle):
		res.Flags.Castle = "q"
	}

	if err := p.g.Move(mv); err != nil {
		return MoveResult{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	p.claimAutomaticDraws()
	return res, nil
}

// claimAutomaticDraws ends the game on threefold repetition and the
// fifty-move rule, which the library only makes claimable.
func (p *chessPosition) claimAutomaticDraws() {
	if p.g.Outcome() != chess.NoOutcome {
		return
	}
	for _, m := range p.g.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			_ = p.g.Draw(m)
			return
		}
	}
}

func fromChessColor(c chess.Color) Color {
	switch c {
	case chess.White:
		return White
	case chess.Black:
		return Black
	}
	return NoColor
}

func methodName(m chess.Method) string {
	switch m {
	case chess.Checkmate:
		return "checkmate"
	case chess.Stalemate:
		return "stalemate"
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return "repetition"
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		return "fifty-move rule"
	case chess.InsufficientMaterial:
		return "insufficient material"
	case chess.Resignation:
		return "resignation"
	case chess.DrawOffer:
		return "agreement"
	}
	return ""
}
