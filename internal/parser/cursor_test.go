package parser

import (
	"testing"
	"unicode"
	"unicode/utf8"
)

func TestCursor_Peek(t *testing.T) {
	c := NewCursor("aé")

	if got := c.PeekFirst(); got != 'a' {
		t.Errorf("PeekFirst() = %q, want 'a'", got)
	}
	if got := c.PeekSecond(); got != 'é' {
		t.Errorf("PeekSecond() = %q, want 'é'", got)
	}
	if c.Consumed() != 0 {
		t.Errorf("Consumed() = %d after peeking, want 0", c.Consumed())
	}
}

func TestCursor_PeekPastEnd(t *testing.T) {
	c := NewCursor("x")

	if got := c.PeekSecond(); got != EOF {
		t.Errorf("PeekSecond() = %q, want EOF", got)
	}
	c.Advance()
	if got := c.PeekFirst(); got != EOF {
		t.Errorf("PeekFirst() = %q, want EOF", got)
	}
	if got := c.PeekSecond(); got != EOF {
		t.Errorf("PeekSecond() = %q, want EOF", got)
	}
	if !c.IsAtEnd() {
		t.Error("IsAtEnd() = false, want true")
	}
	if r, ok := c.Advance(); ok || r != EOF {
		t.Errorf("Advance() = (%q, %v), want (EOF, false)", r, ok)
	}
}

func TestCursor_ConsumedCountsBytes(t *testing.T) {
	c := NewCursor("aéő")

	tests := []struct {
		want     rune
		consumed int
	}{
		{'a', 1},
		{'é', 3},
		{'ő', 5},
	}

	for _, tt := range tests {
		r, ok := c.Advance()
		if !ok || r != tt.want {
			t.Fatalf("Advance() = (%q, %v), want (%q, true)", r, ok, tt.want)
		}
		if c.Consumed() != tt.consumed {
			t.Errorf("Consumed() = %d, want %d", c.Consumed(), tt.consumed)
		}
	}
}

func TestCursor_ResetMark(t *testing.T) {
	c := NewCursor("Leves")
	c.Advance()
	c.Advance()
	c.ResetMark()

	if c.Consumed() != 0 {
		t.Errorf("Consumed() = %d after ResetMark, want 0", c.Consumed())
	}
	c.Advance()
	if c.Consumed() != 1 {
		t.Errorf("Consumed() = %d, want 1", c.Consumed())
	}
}

func TestCursor_AdvanceWhile(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		pred     func(rune) bool
		consumed int
		next     rune
	}{
		{"letters", "abc1", unicode.IsLetter, 3, '1'},
		{"no match", "1abc", unicode.IsLetter, 0, '1'},
		{"stops at end", "abc", func(r rune) bool { return r != ')' }, 3, EOF},
		{"multi-byte", "ÁÉ x", unicode.IsUpper, 4, ' '},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.input)
			c.AdvanceWhile(tt.pred)

			if c.Consumed() != tt.consumed {
				t.Errorf("Consumed() = %d, want %d", c.Consumed(), tt.consumed)
			}
			if got := c.PeekFirst(); got != tt.next {
				t.Errorf("PeekFirst() = %q, want %q", got, tt.next)
			}
		})
	}
}

func TestCursor_InvalidUTF8(t *testing.T) {
	c := NewCursor("\xffa")

	r, ok := c.Advance()
	if !ok || r != utf8.RuneError {
		t.Errorf("Advance() = (%q, %v), want (RuneError, true)", r, ok)
	}
	if c.Consumed() != 1 {
		t.Errorf("Consumed() = %d, want 1", c.Consumed())
	}
	if got := c.PeekFirst(); got != 'a' {
		t.Errorf("PeekFirst() = %q, want 'a'", got)
	}
}
