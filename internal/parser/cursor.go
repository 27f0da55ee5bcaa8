// File: cursor.go
// Title: Menu Text Scanning Cursor
// Description: Character stream primitive used by the lexer. Decodes UTF-8
//              runes for classification but counts consumption in bytes so
//              spans slice the original text exactly.
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation

package parser

import "unicode/utf8"

// EOF is returned by the peek operations once the input has run out.
// It satisfies none of the lexer's classification predicates.
const EOF rune = '\x00'

// Cursor walks a string one rune at a time.
type Cursor struct {
	input string
	pos   int // byte offset of the next unread rune
	mark  int // byte offset of the last ResetMark
}

// NewCursor creates a cursor positioned at the start of input.
func NewCursor(input string) *Cursor {
	return &Cursor{input: input}
}

// PeekFirst returns the next rune without consuming it.
func (c *Cursor) PeekFirst() rune {
	r, _ := c.decodeAt(c.pos)
	return r
}

// PeekSecond returns the rune after the next one without consuming anything.
func (c *Cursor) PeekSecond() rune {
	_, size := c.decodeAt(c.pos)
	if size == 0 {
		return EOF
	}
	r, _ := c.decodeAt(c.pos + size)
	return r
}

// IsAtEnd reports whether the input has been fully consumed.
func (c *Cursor) IsAtEnd() bool {
	return c.pos >= len(c.input)
}

// Advance consumes and returns the next rune. The boolean is false at the
// end of input.
func (c *Cursor) Advance() (rune, bool) {
	r, size := c.decodeAt(c.pos)
	if size == 0 {
		return EOF, false
	}
	c.pos += size
	return r, true
}

// AdvanceWhile consumes runes as long as pred holds for the next one.
func (c *Cursor) AdvanceWhile(pred func(rune) bool) {
	for !c.IsAtEnd() && pred(c.PeekFirst()) {
		c.Advance()
	}
}

// Consumed returns the number of bytes consumed since the last ResetMark.
func (c *Cursor) Consumed() int {
	return c.pos - c.mark
}

// ResetMark starts a new consumption count at the current position.
func (c *Cursor) ResetMark() {
	c.mark = c.pos
}

// decodeAt decodes the rune starting at byte offset off. Invalid UTF-8 is
// reported as utf8.RuneError with a width of one byte.
func (c *Cursor) decodeAt(off int) (rune, int) {
	if off >= len(c.input) {
		return EOF, 0
	}
	return utf8.DecodeRuneInString(c.input[off:])
}
