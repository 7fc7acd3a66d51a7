// internal/convert/convert.go
package convert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ToFloat normalizes a value of unknown type into a float64. External
// nutrition sources emit numbers, numeric strings (sometimes with a comma
// decimal separator), nulls, and garbage; anything unparsable becomes 0
// so a bad field degrades to a zero contribution instead of aborting the
// pipeline.
func ToFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(x, ",", "."))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
