package usecase

import (
	"context"
	"fmt"
	"time"

	"GanttGen/internal/domain/models"
	domrepo "GanttGen/internal/domain/repository"
	"GanttGen/internal/prompt"
	applogger "GanttGen/pkg/logger"
	"GanttGen/pkg/util"

	"github.com/go-playground/validator/v10"
)

// TaskQuery names one task of a session's chart.
type TaskQuery struct {
	SessionID string
	TaskName  string
	Entity    string
}

// TaskAnalyzer answers per-task analysis and chat requests from a session's
// research.
type TaskAnalyzer struct {
	recorder
	completer domrepo.Completer
	sessions  domrepo.SessionStore
	prompts   *prompt.Set
	validate  *validator.Validate
}

func NewTaskAnalyzer(
	completer domrepo.Completer,
	sessions domrepo.SessionStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	prompts *prompt.Set,
	l *applogger.Logger,
) *TaskAnalyzer {
	return &TaskAnalyzer{
		recorder:  recorder{events: events, metrics: metrics, l: l, now: time.Now},
		completer: completer,
		sessions:  sessions,
		prompts:   prompts,
		validate:  validator.New(),
	}
}

// Analyze returns the structured breakdown of one task.
func (uc *TaskAnalyzer) Analyze(ctx context.Context, q TaskQuery) (res *models.TaskAnalysis, err error) {
	start := uc.now()
	ev := &models.GenerationEvent{Kind: models.EventAnalysis, SessionID: q.SessionID}
	defer func() { uc.finish(ctx, ev, start, err) }()

	raw, err := uc.ask(ctx, prompt.Analysis, prompt.AnalysisSchema(), q, "")
	if err != nil {
		return nil, err
	}
	return decode[models.TaskAnalysis](uc.validate, models.EventAnalysis, raw)
}

// Ask answers a free-form question about one task.
func (uc *TaskAnalyzer) Ask(ctx context.Context, q TaskQuery, question string) (res *models.ChatAnswer, err error) {
	start := uc.now()
	ev := &models.GenerationEvent{Kind: models.EventChat, SessionID: q.SessionID}
	defer func() { uc.finish(ctx, ev, start, err) }()

	raw, err := uc.ask(ctx, prompt.Chat, prompt.ChatSchema(), q, question)
	if err != nil {
		return nil, err
	}
	return decode[models.ChatAnswer](uc.validate, models.EventChat, raw)
}

func (uc *TaskAnalyzer) ask(ctx context.Context, kind prompt.Kind, schema map[string]any, q TaskQuery, question string) ([]byte, error) {
	sess, err := uc.sessions.Get(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}

	system, user, err := uc.prompts.Render(kind, prompt.Vars{
		Research: sess.Research,
		TaskName: q.TaskName,
		Entity:   q.Entity,
		Question: question,
		Today:    util.TruncateDay(uc.now()).Format(util.DateLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", kind, err)
	}

	return uc.completer.Complete(ctx, &models.CompletionRequest{
		Operation:    string(kind),
		SystemPrompt: system,
		UserPrompt:   user,
		Schema:       schema,
	})
}
