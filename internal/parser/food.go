// File: food.go
// Title: Food Span Assembler
// Description: Turns the lexer's token stream into Food records, pairing each
//              name with an allergen list that directly follows it.
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation

package parser

import "strings"

// Food is a parsed menu item.
type Food struct {
	Name      string `json:"name" yaml:"name"`
	Allergens string `json:"allergens,omitempty" yaml:"allergens,omitempty"`
}

// HasAllergens reports whether an allergen list was attached to the food.
func (f Food) HasAllergens() bool {
	return f.Allergens != ""
}

// String returns the food as it would appear on a menu
func (f Food) String() string {
	if f.Allergens == "" {
		return f.Name
	}
	return f.Name + " (" + f.Allergens + ")"
}

// ParseFoods extracts the foods listed in a menu cell. Text that cannot be
// classified is dropped; the result is nil for empty or blank input.
func ParseFoods(input string) []Food {
	return assemble(input, NewLexer(input))
}

// assemble walks the token stream with a single-token lookahead buffer.
// The start offset is folded explicitly over every visited token, the
// buffered one included.
func assemble(input string, lx *Lexer) []Food {
	var (
		foods     []Food
		start     int
		buffered  Token
		hasBuffer bool
	)

	next := func() (Token, bool) {
		if hasBuffer {
			hasBuffer = false
			return buffered, true
		}
		return lx.Next()
	}

	for {
		tok, ok := next()
		if !ok {
			return foods
		}
		span := Span{Token: tok, Start: start}
		start = span.End()

		// Allergen lists only count right after a name
		if tok.Kind != TokenName {
			continue
		}

		food := Food{Name: span.Text(input)}
		if la, ok := lx.Next(); ok {
			buffered, hasBuffer = la, true
			if la.Kind == TokenAllergenList {
				food.Allergens = allergenText(Span{Token: la, Start: start}.Text(input))
			}
		}
		foods = append(foods, food)
	}
}

// allergenText strips the enclosing parentheses of an allergen list.
func allergenText(s string) string {
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return strings.TrimSpace(s)
}
