package usecase

import (
	"context"
	"fmt"
	"time"

	"GanttGen/internal/domain/models"
	domrepo "GanttGen/internal/domain/repository"
	"GanttGen/internal/prompt"
	applogger "GanttGen/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ChartGenerator turns a prompt plus research uploads into chart data and
// opens a research session for follow-up analysis and chat.
type ChartGenerator struct {
	recorder
	extractor domrepo.TextExtractor
	completer domrepo.Completer
	sessions  domrepo.SessionStore
	prompts   *prompt.Set
	validate  *validator.Validate
	newID     func() string
}

func NewChartGenerator(
	extractor domrepo.TextExtractor,
	completer domrepo.Completer,
	sessions domrepo.SessionStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	prompts *prompt.Set,
	l *applogger.Logger,
) *ChartGenerator {
	return &ChartGenerator{
		recorder:  recorder{events: events, metrics: metrics, l: l, now: time.Now},
		extractor: extractor,
		completer: completer,
		sessions:  sessions,
		prompts:   prompts,
		validate:  validator.New(),
		newID:     uuid.NewString,
	}
}

// Generate extracts the research, asks the model for a chart and stores the
// research under a new session id. Nothing is stored when any step fails.
func (uc *ChartGenerator) Generate(ctx context.Context, userPrompt string, files []models.UploadedFile) (res *models.ChartResult, err error) {
	start := uc.now()
	ev := &models.GenerationEvent{Kind: models.EventChart, Files: len(files)}
	defer func() { uc.finish(ctx, ev, start, err) }()

	size := 0
	names := make([]string, 0, len(files))
	for _, f := range files {
		size += len(f.Content)
		names = append(names, f.Name)
	}
	uc.metrics.RecordUploadBytes(size)

	research, err := uc.extractor.Extract(ctx, files)
	if err != nil {
		return nil, err
	}

	system, user, err := uc.prompts.Render(prompt.Chart, prompt.Vars{Prompt: userPrompt, Research: research})
	if err != nil {
		return nil, fmt.Errorf("render chart prompt: %w", err)
	}

	raw, err := uc.completer.Complete(ctx, &models.CompletionRequest{
		Operation:    models.EventChart,
		SystemPrompt: system,
		UserPrompt:   user,
		Schema:       prompt.ChartSchema(),
	})
	if err != nil {
		return nil, err
	}

	chart, err := decode[models.ChartData](uc.validate, models.EventChart, raw)
	if err != nil {
		return nil, err
	}

	sess := &models.ResearchSession{
		ID:        uc.newID(),
		Research:  research,
		FileNames: names,
		CreatedAt: start.UTC(),
	}
	ev.SessionID = sess.ID
	if err := uc.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	uc.l.Info("chart generated",
		applogger.String("session_id", sess.ID),
		applogger.Int("files", len(files)),
		applogger.Int("columns", len(chart.TimeColumns)),
		applogger.Int("tasks", chart.Tasks()))

	return &models.ChartResult{SessionID: sess.ID, Chart: chart}, nil
}

// Discard drops a session before its TTL runs out.
func (uc *ChartGenerator) Discard(ctx context.Context, sessionID string) error {
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	uc.l.Info("session discarded", applogger.String("session_id", sessionID))
	return nil
}
