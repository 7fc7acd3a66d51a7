// internal/nutrition/calculator.go
package nutrition

import (
	"context"
	"log"

	"mcp-calorie-ledger/internal/convert"
	"mcp-calorie-ledger/internal/models"
	"mcp-calorie-ledger/internal/parse"
)

// Calculator turns free text about food into a single macro delta by
// parsing quantity segments and resolving each against a Lookup source.
type Calculator struct {
	lookup Lookup
}

func NewCalculator(lookup Lookup) *Calculator {
	return &Calculator{lookup: lookup}
}

// Compute parses text into (grams, food) segments, resolves each against
// the lookup source, scales per-100g values by mass fraction and sums the
// contributions. Unresolvable segments are skipped, not fatal: their names
// are returned so callers can surface the partial failure. Text with no
// recognizable segments yields the zero record.
func (c *Calculator) Compute(ctx context.Context, text string) (models.MacroRecord, []string) {
	var total models.MacroRecord
	var skipped []string

	for _, seg := range parse.Segments(text) {
		facts, found := c.lookup.Search(ctx, seg.Name)
		if !found {
			log.Printf("[WARN] no nutrition data for %q", seg.Name)
			skipped = append(skipped, seg.Name)
			continue
		}

		per100g := models.MacroRecord{
			Kcal:    convert.ToFloat(facts.Kcal100g),
			Protein: convert.ToFloat(facts.Protein100g),
			Fat:     convert.ToFloat(facts.Fat100g),
			Carbs:   convert.ToFloat(facts.Carbs100g),
		}

		// All-zero records are bogus fillers in the upstream data, treat
		// them the same as a miss.
		if per100g.IsZero() {
			log.Printf("[WARN] product has no usable nutrient data: %q", seg.Name)
			skipped = append(skipped, seg.Name)
			continue
		}

		factor := seg.Grams / 100
		total = total.Add(models.MacroRecord{
			Kcal:    per100g.Kcal * factor,
			Protein: per100g.Protein * factor,
			Fat:     per100g.Fat * factor,
			Carbs:   per100g.Carbs * factor,
		})
	}

	return total, skipped
}
