package prompt

// Response schemas use the OpenAPI subset accepted by Gemini's
// generationConfig.responseSchema. Types are upper case.

func str() map[string]any { return map[string]any{"type": "STRING"} }
func nullableInt() map[string]any {
	return map[string]any{"type": "INTEGER", "nullable": true}
}

func object(props map[string]any, required ...string) map[string]any {
	o := map[string]any{"type": "OBJECT", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

func array(items map[string]any) map[string]any {
	return map[string]any{"type": "ARRAY", "items": items}
}

// ChartSchema describes models.ChartData.
func ChartSchema() map[string]any {
	bar := object(map[string]any{
		"startCol": nullableInt(),
		"endCol":   nullableInt(),
		"color":    str(),
	}, "startCol", "endCol", "color")

	row := object(map[string]any{
		"title":      str(),
		"isSwimlane": map[string]any{"type": "BOOLEAN"},
		"entity":     str(),
		"bar":        bar,
	}, "title", "isSwimlane", "entity")

	return object(map[string]any{
		"title":       str(),
		"timeColumns": array(str()),
		"data":        array(row),
	}, "title", "timeColumns", "data")
}

// AnalysisSchema describes models.TaskAnalysis.
func AnalysisSchema() map[string]any {
	status := map[string]any{
		"type": "STRING",
		"enum": []string{"completed", "in-progress", "not-started", "n/a"},
	}

	return object(map[string]any{
		"taskName":  str(),
		"startDate": str(),
		"endDate":   str(),
		"status":    status,
		"facts": array(object(map[string]any{
			"fact":   str(),
			"source": str(),
		}, "fact", "source")),
		"assumptions": array(object(map[string]any{
			"assumption": str(),
			"source":     str(),
		}, "assumption", "source")),
		"rationale": str(),
		"summary":   str(),
	}, "taskName", "startDate", "endDate", "status", "facts", "assumptions")
}

// ChatSchema describes models.ChatAnswer.
func ChatSchema() map[string]any {
	return object(map[string]any{"answer": str()}, "answer")
}
