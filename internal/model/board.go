package model

import "fmt"

// BoardSize is the number of cells on a tic-tac-toe board
const BoardSize = 9

// Cell is the content of a single board square
type Cell uint8

const (
	CellEmpty Cell = iota
	CellX
	CellO
)

// String returns the external representation of the cell: "X", "O" or ""
func (c Cell) String() string {
	switch c {
	case CellX:
		return "X"
	case CellO:
		return "O"
	default:
		return ""
	}
}

// Symbol is one of the two marks a player places
type Symbol uint8

const (
	SymbolX Symbol = iota
	SymbolO
)

// Cell returns the board cell value for this symbol
func (s Symbol) Cell() Cell {
	if s == SymbolX {
		return CellX
	}
	return CellO
}

// Other returns the opposing symbol
func (s Symbol) Other() Symbol {
	if s == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// String returns "X" or "O"
func (s Symbol) String() string {
	if s == SymbolX {
		return "X"
	}
	return "O"
}

// ParseSymbol converts "X" or "O" back into a Symbol
func ParseSymbol(s string) (Symbol, error) {
	switch s {
	case "X":
		return SymbolX, nil
	case "O":
		return SymbolO, nil
	default:
		return SymbolX, fmt.Errorf("invalid symbol %q", s)
	}
}

// Outcome is the result of evaluating a board
type Outcome uint8

const (
	OutcomeNone Outcome = iota // no decision yet, game continues
	OutcomeXWins
	OutcomeOWins
	OutcomeDraw
)

// Board is a 3x3 grid in row-major order
type Board [BoardSize]Cell

// winningTriples are the 8 index sets checked for a win, in evaluation order:
// three rows, three columns, then the two diagonals
var winningTriples = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Evaluate determines the outcome of the board. It is a pure function:
// triples are checked in a fixed order, the first fully-matched one decides
// the winner, a full board with no winner is a draw, and anything else means
// the game continues.
func (b Board) Evaluate() Outcome {
	for _, t := range winningTriples {
		c := b[t[0]]
		if c != CellEmpty && b[t[1]] == c && b[t[2]] == c {
			if c == CellX {
				return OutcomeXWins
			}
			return OutcomeOWins
		}
	}
	if b.IsFull() {
		return OutcomeDraw
	}
	return OutcomeNone
}

// ValidPosition reports whether pos addresses a cell on the board
func ValidPosition(pos int) bool {
	return pos >= 0 && pos < BoardSize
}

// IsFull reports whether every cell is occupied
func (b Board) IsFull() bool {
	for _, c := range b {
		if c == CellEmpty {
			return false
		}
	}
	return true
}

// MoveCount returns the number of occupied cells
func (b Board) MoveCount() int {
	count := 0
	for _, c := range b {
		if c != CellEmpty {
			count++
		}
	}
	return count
}

// Strings returns the board as a 9-element slice of "X"/"O"/"" values,
// the shape the API serializes
func (b Board) Strings() []string {
	cells := make([]string, BoardSize)
	for i, c := range b {
		cells[i] = c.String()
	}
	return cells
}

// Encode packs the board into a 9-character string ('-' for empty cells)
// for flat persisted representations
func (b Board) Encode() string {
	buf := make([]byte, BoardSize)
	for i, c := range b {
		switch c {
		case CellX:
			buf[i] = 'X'
		case CellO:
			buf[i] = 'O'
		default:
			buf[i] = '-'
		}
	}
	return string(buf)
}

// DecodeBoard is the inverse of Encode
func DecodeBoard(s string) (Board, error) {
	var b Board
	if len(s) != BoardSize {
		return b, fmt.Errorf("encoded board must be %d characters, got %d", BoardSize, len(s))
	}
	for i := 0; i < BoardSize; i++ {
		switch s[i] {
		case 'X':
			b[i] = CellX
		case 'O':
			b[i] = CellO
		case '-':
			b[i] = CellEmpty
		default:
			return Board{}, fmt.Errorf("invalid board character %q at position %d", s[i], i)
		}
	}
	return b, nil
}
