package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"GanttGen/internal/domain/models"
	"GanttGen/internal/services/layout"
	"GanttGen/internal/usecase"
	xhttp "GanttGen/pkg/http"
	xlogger "GanttGen/pkg/logger"
	"GanttGen/pkg/util"

	"github.com/labstack/echo/v4"
)

// Form field names used by the browser client.
const (
	filesField       = "researchFiles"
	filesFieldSuffix = "researchFiles[]"
)

// ChartsEchoHandler serves chart generation, task analysis, chat and layout.
type ChartsEchoHandler struct {
	logger   *xlogger.Logger
	charts   *usecase.ChartGenerator
	analyzer *usecase.TaskAnalyzer
	layout   *layout.Service
}

func NewChartsEchoHandler(
	logger *xlogger.Logger,
	charts *usecase.ChartGenerator,
	analyzer *usecase.TaskAnalyzer,
	layout *layout.Service,
) *ChartsEchoHandler {
	return &ChartsEchoHandler{logger: logger, charts: charts, analyzer: analyzer, layout: layout}
}

func (h *ChartsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/generate-chart", h.GenerateChart)
	g.POST("/get-task-analysis", h.TaskAnalysis)
	g.POST("/ask-question", h.AskQuestion)
	g.DELETE("/sessions/:id", h.DeleteSession)
	g.POST("/chart-layout", h.ChartLayout)
	g.GET("/today-marker", h.TodayMarker)
}

// GenerateChart handles multipart uploads: a prompt plus research files.
func (h *ChartsEchoHandler) GenerateChart(c echo.Context) error {
	req := &models.GenerateChartForm{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	files, err := readUploads(c)
	if err != nil {
		return h.fail(c, "generate-chart", &models.UploadError{Err: err})
	}

	res, err := h.charts.Generate(c.Request().Context(), req.Prompt, files)
	if err != nil {
		return h.fail(c, "generate-chart", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) TaskAnalysis(c echo.Context) error {
	req := &models.TaskAnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.Analyze(c.Request().Context(), usecase.TaskQuery{
		SessionID: req.SessionID,
		TaskName:  req.TaskName,
		Entity:    req.Entity,
	})
	if err != nil {
		return h.fail(c, "get-task-analysis", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) AskQuestion(c echo.Context) error {
	req := &models.AskQuestionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.Ask(c.Request().Context(), usecase.TaskQuery{
		SessionID: req.SessionID,
		TaskName:  req.TaskName,
		Entity:    req.Entity,
	}, req.Question)
	if err != nil {
		return h.fail(c, "ask-question", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ChartsEchoHandler) DeleteSession(c echo.Context) error {
	req := &models.SessionPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.charts.Discard(c.Request().Context(), req.ID); err != nil {
		return h.fail(c, "delete-session", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *ChartsEchoHandler) ChartLayout(c echo.Context) error {
	req := &models.ChartLayoutRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	grid, err := h.layout.Layout(&req.Chart, parseDay(req.Today))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.SuccessResponse(c, grid)
}

func (h *ChartsEchoHandler) TodayMarker(c echo.Context) error {
	req := &models.TodayMarkerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// accept both ?columns=a&columns=b and ?columns=a,b
	var columns []string
	for _, v := range req.Columns {
		columns = append(columns, strings.Split(v, ",")...)
	}

	return xhttp.SuccessResponse(c, map[string]*layout.Marker{
		"position": h.layout.TodayMarker(columns, parseDay(req.Date)),
	})
}

func (h *ChartsEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", xlogger.Error(err))
	} else {
		h.logger.Warn(op+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var (
		upErr    *models.UploadError
		upstream *models.UpstreamError
		mismatch *models.SchemaMismatchError
	)
	switch {
	case errors.As(err, &upErr):
		return xhttp.BadRequestError(upErr.Error()).
			WithCode("ERR_UPLOAD_PROCESSING").
			WithError(err)
	case errors.As(err, &upstream):
		e := xhttp.BadGatewayError("the AI service failed to return a usable response").
			WithParam("attempts", upstream.Attempts).
			WithError(err)
		if upstream.Status != 0 {
			e.WithParam("status", upstream.Status)
		}
		if errors.Is(err, models.ErrSafetyBlocked) {
			e.WithParam("reason", "safety")
		}
		return e
	case errors.As(err, &mismatch):
		return xhttp.UnprocessableError(mismatch.Error()).
			WithCode("ERR_SCHEMA_MISMATCH").
			WithError(err)
	case errors.Is(err, models.ErrSessionNotFound):
		return xhttp.NotFoundError("session not found or expired").
			WithCode("ERR_SESSION_NOT_FOUND").
			WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func readUploads(c echo.Context) ([]models.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("read multipart form: %w", err)
	}

	var headers []*multipart.FileHeader
	for _, field := range []string{filesField, filesFieldSuffix} {
		headers = append(headers, form.File[field]...)
	}

	files := make([]models.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		b, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", fh.Filename, err)
		}
		files = append(files, models.UploadedFile{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get(echo.HeaderContentType),
			Content:  b,
		})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func parseDay(s string) *time.Time {
	t, ok := util.ParseDate(s)
	if !ok {
		return nil
	}
	return &t
}
