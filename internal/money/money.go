// Package money provides integer minor-unit arithmetic helpers.
// All amounts in this module are int64 minor units (cents, paise);
// floating point is never used for money.
package money

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPartCount is returned when a total is divided into zero or
	// fewer parts.
	ErrInvalidPartCount = errors.New("part count must be positive")

	// ErrNegativeTotal is returned when a negative total is divided.
	ErrNegativeTotal = errors.New("total must not be negative")
)

// DistributeEqually splits total into n integer parts that sum exactly back
// to total. Every part receives floor(total/n); the remainder (0 <= r < n)
// is spread one unit at a time starting from index 0 of the caller's
// ordering. Callers must pass members in a stable order so the extra units
// land on the same members across create and recompute paths.
//
// Guarantees: sum(parts) == total, and max(parts)-min(parts) <= 1.
func DistributeEqually(total int64, n int) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("distribute %d into %d parts: %w", total, n, ErrInvalidPartCount)
	}
	if total < 0 {
		return nil, fmt.Errorf("distribute %d: %w", total, ErrNegativeTotal)
	}

	base := total / int64(n)
	remainder := int(total - base*int64(n))

	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
		if i < remainder {
			parts[i]++
		}
	}

	return parts, nil
}
