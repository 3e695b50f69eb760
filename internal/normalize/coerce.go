package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// integerPattern accepts quoted integers such as "12" or "+7"
var integerPattern = regexp.MustCompile(`^[-+]?\d+$`)

// coerceInt accepts native integral numbers and integer-formatted strings
func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if integerPattern.MatchString(n.String()) {
			return atoi(n.String())
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case string:
		s := strings.TrimSpace(n)
		if !integerPattern.MatchString(s) {
			return 0, false
		}
		return atoi(s)
	default:
		return 0, false
	}
}

func atoi(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, false
	}
	return i, true
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// nonEmptyString returns the trimmed string when v is a string with content
func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
