package extrinsic

import (
	"fmt"
	"strings"
)

// Mode selects how trailing bytes are treated.
type Mode uint8

const (
	// Strict fails with TrailingBytes when input remains after the extrinsic.
	Strict Mode = iota
	// Lenient ignores trailing input.
	Lenient
)

// ModeFor maps a strict_decode style flag to a Mode.
func ModeFor(strict bool) Mode {
	if strict {
		return Strict
	}
	return Lenient
}

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode parses "strict" or "lenient".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown decode mode %q", s)
	}
}
