// File: numbers.go
// Title: Numeric List Extractor
// Description: Pulls decimal numbers out of loosely formatted nutrient text,
//              accepting both "." and "," as the decimal separator.
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation

package parser

import (
	"strconv"
	"strings"
)

// numberScanner accumulates the digits of the number currently being read.
type numberScanner struct {
	buf          strings.Builder
	hasSeparator bool
	numbers      []float64
}

func (s *numberScanner) acceptsSeparator() bool {
	return s.buf.Len() > 0 && !s.hasSeparator
}

func (s *numberScanner) pushSeparator() {
	s.buf.WriteByte('.')
	s.hasSeparator = true
}

// flush appends the pending number, if any, and resets the buffer.
func (s *numberScanner) flush() {
	if s.buf.Len() > 0 {
		if v, err := strconv.ParseFloat(s.buf.String(), 64); err == nil {
			s.numbers = append(s.numbers, v)
		}
	}
	s.buf.Reset()
	s.hasSeparator = false
}

// ParseNumbers returns the numbers found in input in order of appearance.
func ParseNumbers(input string) []float64 {
	var s numberScanner
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			s.buf.WriteRune(r)
		case (r == '.' || r == ',') && s.acceptsSeparator():
			s.pushSeparator()
		default:
			s.flush()
		}
	}
	s.flush()
	return s.numbers
}
