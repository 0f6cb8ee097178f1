// Package recovery parses the free-form recovery text a user enters for a
// station: a plain percentage ("75") or a single correction ("60-12").
package recovery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxValue is the largest value Parse accepts. It is looser than the 100%
// storage cap so that summed corrections can be entered before clamping.
const MaxValue = 1000

// ErrInvalid is wrapped by every parse failure.
var ErrInvalid = errors.New("invalid recovery input")

// Parse converts input into a percentage.
//
// Grammar (whitespace allowed around the operator):
//
//	input  = "" | number | number op number
//	number = digits ["." [digits]] | "." digits
//	op     = "+" | "-"
//
// Empty or blank input yields 0. Signs are not part of a number, so "-5"
// and "+5" are rejected. The result must lie in [0, MaxValue].
func Parse(input string) (float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, nil
	}

	sc := scanner{src: s}
	left, ok := sc.number()
	if !ok {
		return 0, invalid(input, "expected a number")
	}
	sc.skipSpace()
	if sc.done() {
		return bounded(input, left)
	}

	op := sc.src[sc.pos]
	if op != '+' && op != '-' {
		return 0, invalid(input, fmt.Sprintf("unexpected %q", op))
	}
	sc.pos++
	sc.skipSpace()

	right, ok := sc.number()
	if !ok {
		return 0, invalid(input, "expected a number after operator")
	}
	sc.skipSpace()
	if !sc.done() {
		return 0, invalid(input, "only one operator is allowed")
	}

	if op == '-' {
		return bounded(input, left-right)
	}
	return bounded(input, left+right)
}

// Valid reports whether Parse would accept input.
func Valid(input string) bool {
	_, err := Parse(input)
	return err == nil
}

func bounded(input string, v float64) (float64, error) {
	if v < 0 || v > MaxValue {
		return 0, invalid(input, fmt.Sprintf("%g out of range [0, %d]", v, MaxValue))
	}
	return v, nil
}

func invalid(input, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalid, input, reason)
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) skipSpace() {
	for !s.done() && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

// number consumes an unsigned decimal with at most one point.
func (s *scanner) number() (float64, bool) {
	start := s.pos
	digits := 0
	dot := false
	for ; !s.done(); s.pos++ {
		c := s.src[s.pos]
		if c >= '0' && c <= '9' {
			digits++
			continue
		}
		if c == '.' && !dot {
			dot = true
			continue
		}
		break
	}
	if digits == 0 {
		s.pos = start
		return 0, false
	}
	v, err := strconv.ParseFloat(s.src[start:s.pos], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
