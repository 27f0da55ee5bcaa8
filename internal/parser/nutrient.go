// File: nutrient.go
// Title: Nutrient Mapper
// Description: Maps the numbers extracted from a nutrient cell onto the fixed
//              seven-field nutrient record.
// Version: v0.1.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v0.1.0: Initial implementation

package parser

// MinNutrientValues is the number of values a nutrient cell must contain
// for a Nutrient record to be produced. Shorter lists yield no record.
const MinNutrientValues = 7

// Nutrient is the nutrition summary of one menu cell.
type Nutrient struct {
	Energy       float64 `json:"energy" yaml:"energy"`
	Carbohydrate float64 `json:"carbohydrate" yaml:"carbohydrate"`
	Protein      float64 `json:"protein" yaml:"protein"`
	Sugar        float64 `json:"sugar" yaml:"sugar"`
	Fat          float64 `json:"fat" yaml:"fat"`
	Salt         float64 `json:"salt" yaml:"salt"`
	SaturatedFat float64 `json:"saturated_fat" yaml:"saturated_fat"`
}

// Values returns the fields in their positional order.
func (n Nutrient) Values() []float64 {
	return []float64{n.Energy, n.Carbohydrate, n.Protein, n.Sugar, n.Fat, n.Salt, n.SaturatedFat}
}

// NutrientFromNumbers assigns the first seven numbers in the order energy,
// carbohydrate, protein, sugar, fat, salt, saturated fat. Extra values are
// ignored.
func NutrientFromNumbers(v []float64) (Nutrient, bool) {
	if len(v) < MinNutrientValues {
		return Nutrient{}, false
	}
	return Nutrient{
		Energy:       v[0],
		Carbohydrate: v[1],
		Protein:      v[2],
		Sugar:        v[3],
		Fat:          v[4],
		Salt:         v[5],
		SaturatedFat: v[6],
	}, true
}

// ParseNutrients extracts a nutrient record from a nutrient cell. The result
// is nil when the cell does not hold enough values.
func ParseNutrients(input string) *Nutrient {
	n, ok := NutrientFromNumbers(ParseNumbers(input))
	if !ok {
		return nil
	}
	return &n
}
