package notice

import (
	"fmt"
	"time"
)

// FormatNumber renders the society-scoped notice number, e.g. LN-2024-0007.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("LN-%04d-%04d", year, seq)
}

// NumberYear is the calendar year, in UTC, a notice created at t is numbered in.
func NumberYear(t time.Time) int {
	return t.UTC().Year()
}
