package parser

import (
	"reflect"
	"testing"
)

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []float64
	}{
		{"empty", "", nil},
		{"blank", "   \n", nil},
		{"mixed separators", "energia: 250 kcal, szénhidrát: 12,5g", []float64{250, 12.5}},
		{"dot separator", "3.75 g", []float64{3.75}},
		{"second separator ends number", "1.5.3", []float64{1.5, 3}},
		{"comma list", "3,2,1", []float64{3.2, 1}},
		{"leading separator", ",5", []float64{5}},
		{"trailing separator", "12.", []float64{12}},
		{"space splits thousands", "1 234 kJ", []float64{1, 234}},
		{"number at end of input", "só 2,1", []float64{2.1}},
		{"non-ascii digits ignored", "½ ٣", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumbers(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseNumbers(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
