package emitter

import (
	"fmt"
	"strings"

	tarm "github.com/tarm/serial"
	gobug "go.bug.st/serial"
)

// Parity is the single-letter parity code used in configuration: N, O, E, M or S.
type Parity string

const (
	// ParityNone represents no parity bit
	ParityNone Parity = "N"
	// ParityOdd represents odd parity bit
	ParityOdd Parity = "O"
	// ParityEven represents even parity bit
	ParityEven Parity = "E"
	// ParityMark represents mark parity bit (always 1)
	ParityMark Parity = "M"
	// ParitySpace represents space parity bit (always 0)
	ParitySpace Parity = "S"
)

// ParseParity accepts the letter codes and their spelled-out names, case-insensitively.
// An empty string is ParityNone.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "none":
		return ParityNone, nil
	case "o", "odd":
		return ParityOdd, nil
	case "e", "even":
		return ParityEven, nil
	case "m", "mark":
		return ParityMark, nil
	case "s", "space":
		return ParitySpace, nil
	}
	return "", fmt.Errorf("unsupported parity %q (use N, O, E, M or S)", s)
}

func (pa Parity) Bugst() gobug.Parity {
	switch pa {
	case ParityOdd:
		return gobug.OddParity
	case ParityEven:
		return gobug.EvenParity
	case ParityMark:
		return gobug.MarkParity
	case ParitySpace:
		return gobug.SpaceParity
	default:
		return gobug.NoParity
	}
}

func (pa Parity) Tarm() tarm.Parity {
	switch pa {
	case ParityOdd:
		return tarm.ParityOdd
	case ParityEven:
		return tarm.ParityEven
	case ParityMark:
		return tarm.ParityMark
	case ParitySpace:
		return tarm.ParitySpace
	default:
		return tarm.ParityNone
	}
}
