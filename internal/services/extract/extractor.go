package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"GanttGen/internal/domain/models"
	"GanttGen/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
)

// DocxMIME is the declared type browsers send for Word documents.
const DocxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	ErrTooManyFiles     = errors.New("too many files")
	ErrFileTooLarge     = errors.New("file too large")
	ErrExtensionBlocked = errors.New("file type not allowed")
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxFiles caps the number of files per request.
func WithMaxFiles(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFiles = n
		}
	}
}

// WithMaxFileBytes caps the size of a single file.
func WithMaxFileBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFileBytes = n
		}
	}
}

// WithAllowedExtensions restricts uploads to the given extensions (".md").
// An empty list allows everything.
func WithAllowedExtensions(exts ...string) Option {
	return func(e *Extractor) {
		e.allowed = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			e.allowed[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// Extractor turns research uploads into one delimited text corpus.
type Extractor struct {
	log          *logger.Logger
	maxFiles     int
	maxFileBytes int64
	allowed      map[string]struct{}
}

func New(l *logger.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		log:          l,
		maxFiles:     10,
		maxFileBytes: 10 << 20,
	}
	WithAllowedExtensions(".md", ".txt", ".docx")(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract sorts files by name and concatenates their text, each wrapped in
// start/end delimiters. Any failing file aborts the whole extraction.
func (e *Extractor) Extract(ctx context.Context, files []models.UploadedFile) (string, error) {
	if len(files) > e.maxFiles {
		return "", &models.UploadError{Err: fmt.Errorf("%w: %d > %d", ErrTooManyFiles, len(files), e.maxFiles)}
	}

	sorted := make([]models.UploadedFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, f := range sorted {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := e.extractOne(f)
		if err != nil {
			e.log.Warn("research file rejected", logger.String("file", f.Name), logger.Error(err))
			return "", &models.UploadError{File: f.Name, Err: err}
		}

		fmt.Fprintf(&b, "--- Start of file: %s ---\n", f.Name)
		b.WriteString(text)
		fmt.Fprintf(&b, "\n--- End of file: %s ---\n\n", f.Name)
	}

	e.log.Debug("research extracted",
		logger.Int("files", len(sorted)),
		logger.Int("chars", b.Len()))
	return b.String(), nil
}

func (e *Extractor) extractOne(f models.UploadedFile) (string, error) {
	if int64(len(f.Content)) > e.maxFileBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(f.Content))
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	if len(e.allowed) > 0 {
		if _, ok := e.allowed[ext]; !ok {
			return "", fmt.Errorf("%w: %q", ErrExtensionBlocked, ext)
		}
	}

	if isDocx(f, ext) {
		return docxText(f.Content)
	}
	return strings.ToValidUTF8(string(f.Content), "�"), nil
}

func isDocx(f models.UploadedFile, ext string) bool {
	declared := strings.ToLower(strings.TrimSpace(f.MIMEType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}

	switch declared {
	case DocxMIME:
		return true
	case "", "application/octet-stream":
		return ext == ".docx" || mimetype.Detect(f.Content).Is(DocxMIME)
	default:
		return false
	}
}
