package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDollarAmount extracts a dollar value from a currency string as
// Rentometer renders them, e.g. "$1,234.56" or "MEDIAN\n$1,500 /mo".
// Everything up to and including the last "$" is discarded, thousands
// separators are stripped, and any trailing non-numeric suffix is ignored.
func ParseDollarAmount(s string) (float64, error) {
	raw := s
	if i := strings.LastIndex(s, "$"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))

	end := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			end = i
			break
		}
	}
	s = strings.TrimSpace(s[:end])
	if s == "" {
		return 0, fmt.Errorf("no dollar value in %q", raw)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse dollar value %q: %w", raw, err)
	}
	return v, nil
}
