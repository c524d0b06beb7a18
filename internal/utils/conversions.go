package utils

import (
	"encoding/json"
	"strconv"
)

// ClaimString renders a decoded JSON claim as a string. Numeric identifiers
// (e.g. a user_id of 42) arrive as float64 or json.Number and are formatted
// without a fractional part.
func ClaimString(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		return c, c != ""
	case float64:
		if c != float64(int64(c)) {
			return strconv.FormatFloat(c, 'f', -1, 64), true
		}
		return strconv.FormatInt(int64(c), 10), true
	case json.Number:
		return c.String(), c.String() != ""
	case int:
		return strconv.Itoa(c), true
	case int64:
		return strconv.FormatInt(c, 10), true
	default:
		return "", false
	}
}
