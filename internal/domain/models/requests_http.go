package models

// Requests for chart HTTP endpoints.

type GenerateChartForm struct {
	Prompt string `form:"prompt" json:"prompt" validate:"required,max=20000"`
}

type TaskAnalysisRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
	TaskName  string `json:"taskName" validate:"required,max=500"`
	Entity    string `json:"entity" validate:"max=500"`
}

type AskQuestionRequest struct {
	SessionID string `json:"sessionId" validate:"required,uuid"`
	TaskName  string `json:"taskName" validate:"required,max=500"`
	Entity    string `json:"entity" validate:"max=500"`
	Question  string `json:"question" validate:"required,max=4000"`
}

type ChartLayoutRequest struct {
	Chart ChartData `json:"chart"`
	Today string    `json:"today" validate:"omitempty,datetime=2006-01-02"`
}

type TodayMarkerRequest struct {
	Columns []string `query:"columns" validate:"required,min=1"`
	Date    string   `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

type SessionPathRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}
