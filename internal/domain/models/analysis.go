package models

// Task statuses reported by the analysis prompt.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
	StatusNotStarted = "not-started"
	StatusNA         = "n/a"
)

// TaskAnalysis is the on-demand breakdown of a single task.
type TaskAnalysis struct {
	TaskName    string       `json:"taskName" validate:"required"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	Status      string       `json:"status" validate:"required,oneof=completed in-progress not-started n/a"`
	Facts       []Fact       `json:"facts" validate:"dive"`
	Assumptions []Assumption `json:"assumptions" validate:"dive"`
	Rationale   string       `json:"rationale,omitempty"`
	Summary     string       `json:"summary,omitempty"`
}

type Fact struct {
	Fact   string `json:"fact" validate:"required"`
	Source string `json:"source"`
}

type Assumption struct {
	Assumption string `json:"assumption" validate:"required"`
	Source     string `json:"source"`
}

// ChatAnswer is the reply to a follow-up question about a task.
type ChatAnswer struct {
	Answer string `json:"answer" validate:"required"`
}
