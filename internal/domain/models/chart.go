package models

// ChartData is the Gantt chart contract exchanged with the front end.
type ChartData struct {
	Title       string   `json:"title"`
	TimeColumns []string `json:"timeColumns" validate:"required,min=1,dive,required"`
	Data        []Row    `json:"data" validate:"required,min=1,dive"`
}

// Row is either a swimlane header or a task belonging to the preceding swimlane.
type Row struct {
	Title      string `json:"title" validate:"required"`
	IsSwimlane bool   `json:"isSwimlane"`
	Entity     string `json:"entity"`
	Bar        *Bar   `json:"bar,omitempty"`
}

// Bar spans time columns [StartCol, EndCol). Both are 1-based and may be null
// when the task has no known dates.
type Bar struct {
	StartCol *int   `json:"startCol"`
	EndCol   *int   `json:"endCol"`
	Color    string `json:"color"`
}

// Span returns the bar's column bounds when both are set.
func (b *Bar) Span() (start, end int, ok bool) {
	if b == nil || b.StartCol == nil || b.EndCol == nil {
		return 0, 0, false
	}
	return *b.StartCol, *b.EndCol, true
}

// Tasks counts the non-swimlane rows.
func (c *ChartData) Tasks() int {
	n := 0
	for _, r := range c.Data {
		if !r.IsSwimlane {
			n++
		}
	}
	return n
}
