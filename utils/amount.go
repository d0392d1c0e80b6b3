package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ParseAmount reads a money amount typed by a member. Surrounding spaces are
// ignored and an empty string is zero; NaN and infinities are rejected.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New("amount must be a finite number")
	}
	return value, nil
}
