// Package layout computes the CSS grid placement a chart renderer needs:
// bar spans per row and the horizontal position of the today marker.
package layout

import (
	"fmt"
	"time"

	"GanttGen/internal/domain/models"
	"GanttGen/internal/services/timeline"
	"GanttGen/pkg/util"
)

// LabelColumnWidth is the first grid column holding row titles.
const LabelColumnWidth = "minmax(220px, max-content)"

// Bar is a task bar placed on the grid. Grid lines are 1-based and the end
// line is exclusive, as in CSS grid-column.
type Bar struct {
	GridColumnStart int      `json:"gridColumnStart"`
	GridColumnEnd   int      `json:"gridColumnEnd"`
	Color           string   `json:"color"`
	Columns         []string `json:"columns"`
}

// Row is one rendered chart row.
type Row struct {
	Title      string `json:"title"`
	Entity     string `json:"entity,omitempty"`
	IsSwimlane bool   `json:"isSwimlane"`
	Bar        *Bar   `json:"bar,omitempty"`
}

// Marker places the today line within the time axis.
type Marker struct {
	Index       int     `json:"index"`
	Fraction    float64 `json:"fraction"`
	LeftPercent float64 `json:"leftPercent"`
	Label       string  `json:"label"`
}

// Grid is the complete layout of a chart.
type Grid struct {
	Title               string   `json:"title"`
	TimeColumns         []string `json:"timeColumns"`
	Granularity         string   `json:"granularity"`
	GridTemplateColumns string   `json:"gridTemplateColumns"`
	Rows                []Row    `json:"rows"`
	Today               *Marker  `json:"today"`
	ReferenceDate       string   `json:"referenceDate"`

	// SkippedBars counts task bars whose span fell outside the time axis.
	SkippedBars int `json:"skippedBars"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for the default reference date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service builds layouts. It is safe for concurrent use.
type Service struct {
	now func() time.Time
}

func New(opts ...Option) *Service {
	s := &Service{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the service clock's calendar day.
func (s *Service) Today() time.Time {
	return util.TruncateDay(s.now())
}

// Layout places every row of chart on the grid. A nil ref uses Today.
func (s *Service) Layout(chart *models.ChartData, ref *time.Time) (*Grid, error) {
	if chart == nil || len(chart.TimeColumns) == 0 {
		return nil, fmt.Errorf("chart has no time columns")
	}

	day := s.reference(ref)
	cols := chart.TimeColumns
	g := &Grid{
		Title:               chart.Title,
		TimeColumns:         cols,
		Granularity:         timeline.Detect(cols).String(),
		GridTemplateColumns: fmt.Sprintf("%s repeat(%d, 1fr)", LabelColumnWidth, len(cols)),
		Rows:                make([]Row, 0, len(chart.Data)),
		Today:               s.marker(cols, day),
		ReferenceDate:       day.Format(util.DateLayout),
	}

	for _, r := range chart.Data {
		row := Row{Title: r.Title, Entity: r.Entity, IsSwimlane: r.IsSwimlane}
		if !r.IsSwimlane {
			bar, ok := PlaceBar(r.Bar, len(cols))
			switch {
			case ok:
				bar.Columns = cols[bar.GridColumnStart-2 : bar.GridColumnEnd-2]
				row.Bar = bar
			case r.Bar != nil && r.Bar.StartCol != nil && r.Bar.EndCol != nil:
				g.SkippedBars++
			}
		}
		g.Rows = append(g.Rows, row)
	}

	return g, nil
}

// TodayMarker resolves ref (or Today when nil) against columns.
func (s *Service) TodayMarker(columns []string, ref *time.Time) *Marker {
	return s.marker(columns, s.reference(ref))
}

// PlaceBar converts a 1-based [startCol, endCol) span into grid lines. The
// label column is grid column 1, so time column k is grid column k+1.
// Null or out-of-range spans are not placed.
func PlaceBar(b *models.Bar, columns int) (*Bar, bool) {
	start, end, ok := b.Span()
	if !ok || start < 1 || end <= start || end-1 > columns {
		return nil, false
	}
	return &Bar{
		GridColumnStart: start + 1,
		GridColumnEnd:   end + 1,
		Color:           b.Color,
	}, true
}

func (s *Service) reference(ref *time.Time) time.Time {
	if ref == nil {
		return s.Today()
	}
	return util.TruncateDay(*ref)
}

func (s *Service) marker(columns []string, day time.Time) *Marker {
	pos := timeline.Resolve(day, columns)
	if pos == nil {
		return nil
	}

	frac := pos.Fraction
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return &Marker{
		Index:       pos.Index,
		Fraction:    pos.Fraction,
		LeftPercent: (float64(pos.Index) + frac) / float64(len(columns)) * 100,
		Label:       columns[pos.Index],
	}
}
