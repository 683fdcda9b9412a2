package timeline

import (
	"regexp"
	"strings"
)

// Granularity is the period size shared by all columns of a chart.
type Granularity int

const (
	Unknown Granularity = iota
	Year
	Quarter
	Month
	Week
)

var (
	yearRe    = regexp.MustCompile(`^(\d{4})$`)
	quarterRe = regexp.MustCompile(`^Q([1-4]) (\d{4})$`)
	monthRe   = regexp.MustCompile(`^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) (\d{4})$`)
	weekRe    = regexp.MustCompile(`^W(\d{1,2}) (\d{4})$`)
)

// String returns the lower-case granularity name.
func (g Granularity) String() string {
	switch g {
	case Year:
		return "year"
	case Quarter:
		return "quarter"
	case Month:
		return "month"
	case Week:
		return "week"
	default:
		return "unknown"
	}
}

// Detect infers the granularity from the first column label only.
// The remaining labels are assumed to share it.
func Detect(columns []string) Granularity {
	if len(columns) == 0 {
		return Unknown
	}
	first := strings.TrimSpace(columns[0])
	switch {
	case yearRe.MatchString(first):
		return Year
	case quarterRe.MatchString(first):
		return Quarter
	case monthRe.MatchString(first):
		return Month
	case weekRe.MatchString(first):
		return Week
	default:
		return Unknown
	}
}
