package emotion

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Normalize turns arbitrary numeric-like values into integer percentages summing
// to exactly 100. keys fixes the iteration order and the tie-break; when nil the
// sorted keys of values are used.
//
// Values that cannot be coerced count as 0 and negatives are clamped to 0. Any
// value <= 1 is taken as a fraction and scaled by 100, so a genuine 0.5% reads
// as 50%. Shares are rounded half to even; the rounding remainder goes to the
// first key holding the largest share. An all-zero input maps every key to 0.
func Normalize(keys []string, values map[string]any) map[string]int {
	if keys == nil {
		keys = make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	converted := make([]float64, len(keys))
	var total float64
	for i, k := range keys {
		v := coerce(values[k])
		if v <= 1.0 {
			v *= 100
		}
		converted[i] = v
		total += v
	}

	out := make(map[string]int, len(keys))
	if total == 0 {
		for _, k := range keys {
			out[k] = 0
		}
		return out
	}

	rounded := make([]int, len(keys))
	sum := 0
	maxIdx := 0
	for i, v := range converted {
		rounded[i] = int(math.RoundToEven(v / total * 100))
		sum += rounded[i]
		if rounded[i] > rounded[maxIdx] {
			maxIdx = i
		}
	}

	if diff := 100 - sum; diff != 0 {
		rounded[maxIdx] += diff
		if rounded[maxIdx] < 0 {
			rounded[maxIdx] = 0
		}
	}

	for i, k := range keys {
		out[k] = rounded[i]
	}
	return out
}

func coerce(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
