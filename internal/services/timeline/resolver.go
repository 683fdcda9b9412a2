// Package timeline places a reference date on a chart's time axis.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"GanttGen/pkg/util"
)

// Position is the column holding the reference date and how far into that
// column the date sits.
type Position struct {
	Index    int     `json:"index"`
	Fraction float64 `json:"fraction"`
}

// Resolve finds the column of columns whose label, trimmed of surrounding
// whitespace, equals Label(g, ref) for the detected granularity g. It returns
// nil when the column set is empty, its format is not recognised, or no
// column carries that label. Only the calendar day of ref (in its own
// location) is used.
func Resolve(ref time.Time, columns []string) *Position {
	g := Detect(columns)
	label, ok := Label(g, ref)
	if !ok {
		return nil
	}
	_, fraction, _ := locate(g, ref)
	for i, c := range columns {
		if strings.TrimSpace(c) == label {
			return &Position{Index: i, Fraction: fraction}
		}
	}
	return nil
}

// Label renders the column label ref belongs to under g, e.g. "Q2 2025".
func Label(g Granularity, ref time.Time) (string, bool) {
	p, _, ok := locate(g, ref)
	if !ok {
		return "", false
	}
	switch g {
	case Year:
		return fmt.Sprintf("%04d", p.year), true
	case Quarter:
		return fmt.Sprintf("Q%d %04d", p.n, p.year), true
	case Month:
		return fmt.Sprintf("%s %04d", time.Month(p.n).String()[:3], p.year), true
	case Week:
		return fmt.Sprintf("W%d %04d", p.n, p.year), true
	case Unknown:
		return "", false
	}
	return "", false
}

// period identifies one column: the year plus the quarter, month or week
// number within it (0 for year columns).
type period struct {
	year int
	n    int
}

func locate(g Granularity, ref time.Time) (period, float64, bool) {
	y, m, d := ref.Date()
	switch g {
	case Year:
		frac := float64(ref.YearDay()-1) / float64(util.DaysInYear(y)-1)
		return period{year: y}, frac, true
	case Quarter:
		q := (int(m)-1)/3 + 1
		first := time.Month((q-1)*3 + 1)
		total, elapsed := 0, d-1
		for mon := first; mon < first+3; mon++ {
			days := util.DaysInMonth(y, mon)
			total += days
			if mon < m {
				elapsed += days
			}
		}
		return period{year: y, n: q}, float64(elapsed) / float64(total), true
	case Month:
		return period{year: y, n: int(m)}, float64(d) / float64(util.DaysInMonth(y, m)), true
	case Week:
		// Labels carry the calendar year of ref, not the ISO week-year.
		_, w := ref.ISOWeek()
		return period{year: y, n: w}, (float64(ref.Weekday()) + 0.5) / 7, true
	case Unknown:
		return period{}, 0, false
	}
	return period{}, 0, false
}
