// File: doc.go
// Title: Menu Parser Package Documentation
// Description: Lexer, span assembler and numeric extractor for menu cells.
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation

/*
Package parser turns the text of menu table cells into typed records.

Food cells are scanned by a heuristic lexer that never fails:

	Cursor -> Lexer -> []Token -> assembler -> []Food

Every rune of the input ends up in exactly one token, so the token lengths
always add up to the input length in bytes. Names start with an uppercase
letter, allergen lists are parenthesized and start with a digit, and
everything else is noise.

Nutrient cells go through a separate extractor:

	ParseNumbers -> []float64 -> NutrientFromNumbers -> Nutrient

A nutrient record needs at least MinNutrientValues numbers.

Usage:

	foods := parser.ParseFoods("Gulyásleves(1,9)\nKenyér 2 szelet (1)")
	n := parser.ParseNutrients("250 kcal 30,5 12 4 9,1 1,2 3")
*/
package parser
