// File: token.go
// Title: Menu Text Tokens
// Description: Token kinds produced by the menu lexer and the span type used
//              to slice token text out of the original input.
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation

package parser

import (
	"fmt"
	"strings"
)

// TokenKind classifies a run of menu text
type TokenKind int

const (
	// TokenNoise covers whitespace, quantities, units and punctuation
	TokenNoise TokenKind = iota

	// TokenName is a capitalized food name, optionally with parenthesized info
	TokenName

	// TokenAllergenList is a parenthesized list of allergen codes
	TokenAllergenList
)

// String returns a string representation of the token kind
func (k TokenKind) String() string {
	switch k {
	case TokenNoise:
		return "NOISE"
	case TokenName:
		return "NAME"
	case TokenAllergenList:
		return "ALLERGENS"
	default:
		return "UNKNOWN"
	}
}

// Token is a classified run of input. Len is measured in bytes.
type Token struct {
	Kind TokenKind
	Len  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("%s(%d)", t.Kind, t.Len)
}

// Span locates a token within the source text.
type Span struct {
	Token
	Start int
}

// End returns the byte offset just past the span.
func (s Span) End() int {
	return s.Start + s.Len
}

// Raw returns the exact source text covered by the span.
func (s Span) Raw(input string) string {
	return input[s.Start:s.End()]
}

// Text returns the span text trimmed and with line breaks removed.
func (s Span) Text(input string) string {
	return stripLineBreaks(strings.TrimSpace(s.Raw(input)))
}

var lineBreakReplacer = strings.NewReplacer("\r", "", "\n", "")

func stripLineBreaks(s string) string {
	return lineBreakReplacer.Replace(s)
}
