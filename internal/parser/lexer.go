// File: lexer.go
// Title: Menu Text Lexer
// Description: Heuristic lexer that classifies free-form menu cell text into
//              food names, allergen lists and noise. Food listings usually
//              look like "Name (extra info) 15 dkg (1,7)", but nothing is
//              validated: runs are classified greedily and the assembler
//              decides what is usable.
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial lexer implementation

package parser

import "unicode"

// Lexer produces one token per call to Next, covering the input without
// gaps or overlap.
type Lexer struct {
	cursor *Cursor
}

// NewLexer creates a lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{cursor: NewCursor(input)}
}

// Next returns the next token. The boolean is false once the input is
// exhausted.
func (l *Lexer) Next() (Token, bool) {
	if l.cursor.IsAtEnd() {
		return Token{}, false
	}
	l.cursor.ResetMark()
	kind := l.classify()
	return Token{Kind: kind, Len: l.cursor.Consumed()}, true
}

// Tokenize scans the whole input and returns every token in order.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, ok := l.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// Spans scans the whole input and returns every token with its offset.
func Spans(input string) []Span {
	tokens := Tokenize(input)
	spans := make([]Span, 0, len(tokens))
	start := 0
	for _, tok := range tokens {
		spans = append(spans, Span{Token: tok, Start: start})
		start += tok.Len
	}
	return spans
}

// classify consumes the first rune and dispatches on it. Rule order matters.
func (l *Lexer) classify() TokenKind {
	c := l.cursor
	first, _ := c.Advance()

	switch {
	case unicode.IsSpace(first):
		c.AdvanceWhile(unicode.IsSpace)
		return TokenNoise
	case isNumeric(first):
		return l.quantity()
	case unicode.IsUpper(first) && unicode.IsUpper(c.PeekFirst()):
		// Standalone all caps qualifier or unit, e.g. DIÉTÁS
		c.AdvanceWhile(unicode.IsUpper)
		return TokenNoise
	case unicode.IsUpper(first):
		return l.name()
	case first == '(':
		return l.allergens()
	default:
		return TokenNoise
	}
}

// name reads a capitalized food name. Parenthesized text that does not start
// with a digit is kept as part of the name (manufacturer, style). Known
// limitations: "Májkrém Hamé" comes out as two foods, and the quantity in
// "Gríz(30 g)" is read as an allergen list.
func (l *Lexer) name() TokenKind {
	c := l.cursor
	c.AdvanceWhile(func(r rune) bool {
		return r != '*' && (unicode.IsLower(r) || unicode.IsSpace(r))
	})

	if c.PeekFirst() == '(' && !isNumeric(c.PeekSecond()) {
		c.AdvanceWhile(func(r rune) bool { return r != ')' })
		c.Advance()
	}
	return TokenName
}

// quantity reads an amount such as "15 dkg" up to the next name or
// allergen list, plus a trailing all caps unit.
func (l *Lexer) quantity() TokenKind {
	c := l.cursor
	c.AdvanceWhile(func(r rune) bool {
		return !unicode.IsUpper(r) && (r != '(' || unicode.IsSpace(r))
	})

	if unicode.IsUpper(c.PeekFirst()) && unicode.IsUpper(c.PeekSecond()) {
		c.AdvanceWhile(unicode.IsUpper)
	}
	return TokenNoise
}

// allergens reads everything up to and including the closing parenthesis.
func (l *Lexer) allergens() TokenKind {
	c := l.cursor
	c.AdvanceWhile(func(r rune) bool { return r != ')' })
	c.Advance()
	return TokenAllergenList
}

func isNumeric(r rune) bool {
	return unicode.IsNumber(r)
}
