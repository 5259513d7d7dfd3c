// Package token splits EyeLink ASCII log lines into typed tokens.
package token

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Kind is the coerced type of a token.
type Kind int

const (
	Text Kind = iota
	Integer
	Real
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Real:
		return "real"
	default:
		return "text"
	}
}

// Token is one word of a log line. Numeric-looking words are coerced
// eagerly; Raw always holds the word as written.
type Token struct {
	Kind Kind
	Raw  string
	Int  int64
	Real float64
}

// Line is the ordered token sequence of one log line.
type Line []Token

// IsText reports whether the token stayed text after coercion.
func (t Token) IsText() bool { return t.Kind == Text }

// Is reports whether t is the text token s.
func (t Token) Is(s string) bool { return t.Kind == Text && t.Raw == s }

// Number returns the numeric value of t, and false for text tokens.
func (t Token) Number() (float64, bool) {
	switch t.Kind {
	case Integer:
		return float64(t.Int), true
	case Real:
		return t.Real, true
	default:
		return 0, false
	}
}

// Value returns the coerced Go value: int64, float64 or string.
func (t Token) Value() any {
	switch t.Kind {
	case Integer:
		return t.Int
	case Real:
		return t.Real
	default:
		return t.Raw
	}
}

func (t Token) String() string { return t.Raw }

// New classifies a single word.
func New(word string) Token {
	if i, err := strconv.ParseInt(word, 10, 64); err == nil {
		return Token{Kind: Integer, Raw: word, Int: i}
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil {
		return Token{Kind: Real, Raw: word, Real: f}
	}
	return Token{Kind: Text, Raw: word}
}

// Tokenize splits a raw line using shell word-splitting rules and coerces
// each word. It never fails: a line with an unterminated quote yields an
// empty Line.
func Tokenize(raw string) Line {
	raw = strings.TrimRight(raw, "\r\n")
	words, err := shellquote.Split(raw)
	if err != nil || len(words) == 0 {
		return nil
	}
	l := make(Line, len(words))
	for i, w := range words {
		l[i] = New(w)
	}
	return l
}

// Words returns the raw words of the line.
func (l Line) Words() []string {
	out := make([]string, len(l))
	for i, t := range l {
		out[i] = t.Raw
	}
	return out
}
