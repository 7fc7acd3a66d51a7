// internal/models/macros.go
package models

import (
	"math"
)

// MacroRecord holds kilocalories plus the three macronutrients in grams.
// The same shape serves as a per-meal delta and as an accumulated daily total.
type MacroRecord struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`
}

// Add returns the field-wise sum of m and other.
func (m MacroRecord) Add(other MacroRecord) MacroRecord {
	return MacroRecord{
		Kcal:    m.Kcal + other.Kcal,
		Protein: m.Protein + other.Protein,
		Fat:     m.Fat + other.Fat,
		Carbs:   m.Carbs + other.Carbs,
	}
}

// Neg returns m with every field negated. Used to turn an "eaten"
// delta into a removal delta.
func (m MacroRecord) Neg() MacroRecord {
	return MacroRecord{
		Kcal:    -m.Kcal,
		Protein: -m.Protein,
		Fat:     -m.Fat,
		Carbs:   -m.Carbs,
	}
}

// Clamped returns m with every field floored at zero.
func (m MacroRecord) Clamped() MacroRecord {
	return MacroRecord{
		Kcal:    math.Max(m.Kcal, 0),
		Protein: math.Max(m.Protein, 0),
		Fat:     math.Max(m.Fat, 0),
		Carbs:   math.Max(m.Carbs, 0),
	}
}

// Rounded returns m with every field rounded to 2 decimal places,
// the precision totals are persisted at.
func (m MacroRecord) Rounded() MacroRecord {
	return MacroRecord{
		Kcal:    round2(m.Kcal),
		Protein: round2(m.Protein),
		Fat:     round2(m.Fat),
		Carbs:   round2(m.Carbs),
	}
}

// IsZero reports whether all four fields are exactly zero.
func (m MacroRecord) IsZero() bool {
	return m.Kcal == 0 && m.Protein == 0 && m.Fat == 0 && m.Carbs == 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FoodEntry is one logged "add" event. Entries are append-only: removals
// adjust totals but never touch history.
type FoodEntry struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carbs   float64 `json:"carbs"`
}

// DayRecord is the ledger state for one calendar day.
type DayRecord struct {
	Totals  MacroRecord `json:"totals"`
	History []FoodEntry `json:"history"`
}

// Facts holds per-100g nutrition values as returned by the lookup source.
// Fields are deliberately untyped: the upstream API mixes numbers, numeric
// strings with locale decimal separators, and nulls. convert.ToFloat
// normalizes them at calculation time.
type Facts struct {
	Kcal100g    any `json:"kcal_100g"`
	Protein100g any `json:"protein_100g"`
	Fat100g     any `json:"fat_100g"`
	Carbs100g   any `json:"carbs_100g"`
}
