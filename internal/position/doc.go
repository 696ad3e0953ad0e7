// Package position holds the value types and pure functions for chess
// placements and full positions.
//
// A [Placement] is the piece-arrangement field of a FEN string. A [Position]
// is a complete FEN: placement, side to move, castling rights, en passant
// target and the half/full-move counters. Two positions are "the same" for
// chessbook when their placements are equal; castling and counters are never
// compared, because book diagrams almost never state them.
//
// # Parsing
//
// Parsing is strict and never panics. A placement must split into exactly 8
// ranks and every rank must expand to exactly 8 files. Failures are returned
// as a [*ParseError] whose Code names the failure:
//
//	pl, err := position.ParsePlacement("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP")
//	var perr *position.ParseError
//	if errors.As(err, &perr) && perr.Code == position.CodeInvalidRanks {
//	    ...
//	}
//
// # Full positions from diagrams
//
// [ToFullPosition] turns a bare placement into a Position with full castling
// rights (KQkq), no en passant square and counters "0 1". This loses fidelity
// relative to the real game position in the book, which is accepted: castling
// rights are not inferred from piece locations.
package position
