package lsystem

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Symbol is one letter of the drawing alphabet.
type Symbol uint8

const (
	Draw       Symbol = iota // F: move forward and draw
	Step                     // f: move forward without drawing
	Left                     // +: turn left by the angle increment
	Right                    // -: turn right by the angle increment
	DrawLeft                 // L: draw, turn left, draw
	DrawRight                // R: draw, turn right, draw
	SubfigureA               // A: placeholder, draws nothing
	SubfigureB               // B: placeholder, draws nothing
)

const glyphs = "Ff+-LRAB"

// Arrow separates the two sides of a production rule.
const Arrow = "→"

func (s Symbol) String() string {
	if int(s) < len(glyphs) {
		return glyphs[s : s+1]
	}
	return fmt.Sprintf("Symbol(%d)", uint8(s))
}

// Moves reports whether s only moves or turns the turtle.
func (s Symbol) Moves() bool {
	return s == Step || s == Left || s == Right
}

var ErrParse = errors.New("lsystem: parse error")

// ParseError reports the first character that could not be parsed.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lsystem: %s at offset %d in %q", e.Msg, e.Offset, e.Input)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ParseSymbols converts a string of reserved characters into symbols.
func ParseSymbols(s string) ([]Symbol, error) {
	out := make([]Symbol, 0, len(s))
	for off, r := range s {
		i := strings.IndexRune(glyphs, r)
		if i < 0 {
			msg := fmt.Sprintf("unknown symbol %q", r)
			if r == utf8.RuneError {
				msg = "invalid UTF-8"
			}
			return nil, &ParseError{Input: s, Offset: off, Msg: msg}
		}
		out = append(out, Symbol(i))
	}
	return out, nil
}

// Format is the inverse of ParseSymbols.
func Format(seq []Symbol) string {
	var sb strings.Builder
	sb.Grow(len(seq))
	for _, s := range seq {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Rule is a parsed production.
type Rule struct {
	From []Symbol
	To   []Symbol
}

// Key is the symbol the rule rewrites. Only the first symbol of the left
// side takes part in matching.
func (r Rule) Key() Symbol { return r.From[0] }

func (r Rule) String() string { return Format(r.From) + Arrow + Format(r.To) }

// ParseRule parses "<symbols>→<symbols>". The right side may be empty.
func ParseRule(s string) (Rule, error) {
	i := strings.Index(s, Arrow)
	if i < 0 {
		return Rule{}, &ParseError{Input: s, Offset: len(s), Msg: "missing " + Arrow}
	}
	if i == 0 {
		return Rule{}, &ParseError{Input: s, Offset: 0, Msg: "empty left side"}
	}
	from, err := ParseSymbols(s[:i])
	if err != nil {
		return Rule{}, reparent(err, s, 0)
	}
	to, err := ParseSymbols(s[i+len(Arrow):])
	if err != nil {
		return Rule{}, reparent(err, s, i+len(Arrow))
	}
	return Rule{From: from, To: to}, nil
}

// reparent rewrites a ParseError from a substring so its offset points into
// the whole rule.
func reparent(err error, input string, base int) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return &ParseError{Input: input, Offset: base + pe.Offset, Msg: pe.Msg}
	}
	return err
}
