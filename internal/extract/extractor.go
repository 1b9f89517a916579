package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/joseph-ayodele/doc-enricher/constants"
)

// Direct structural PDF extraction is trusted only when it yields this
// many non-whitespace characters; anything shorter falls through to OCR.
const minDirectTextChars = 50

// directPDFConfidence is the fixed score for structural extraction;
// when a PDF carries a real text layer the layout pass is reliable.
const directPDFConfidence = 0.95

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir string
}

// Result is the output of one extraction run. Confidence is always in
// [0,1] and Method is one of the constants.Method* tags. A failed run
// is reported as Method "error" with confidence 0, never as a Go error.
type Result struct {
	Text       string
	Confidence float64
	Method     string
	PageCount  int
	Duration   time.Duration
	Metadata   map[string]string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract resolves the file type and runs the matching strategy.
// Failures degrade to a zero-confidence empty result so that a broken
// file can never abort ingestion; callers inspect Method/Confidence.
func (e *Extractor) Extract(ctx context.Context, path, declaredMediaType string) Result {
	start := time.Now()

	format := e.resolveFormat(path, declaredMediaType)
	e.logger.Debug("starting extraction", "path", path, "format", string(format), "declared", declaredMediaType)

	var res Result
	var err error
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	case constants.TEXT:
		res, err = e.extractPlainText(path)
	default:
		err = fmt.Errorf("%w: %q", errUnsupported, declaredMediaType)
	}
	if err != nil {
		e.logger.Error("extraction failed", "path", path, "format", string(format), "error", err)
		res = errorResult(err)
	}

	res.Duration = time.Since(start)
	return res
}

var errUnsupported = fmt.Errorf("unsupported file type")

func errorResult(err error) Result {
	return Result{
		Method:   constants.MethodError,
		Metadata: map[string]string{"error": err.Error()},
	}
}

// resolveFormat sniffs file content first and falls back to the
// declared media type, then the file extension.
func (e *Extractor) resolveFormat(path, declaredMediaType string) constants.FileFormat {
	if f := sniffFormat(path); f != "" {
		return f
	}
	if f := constants.MapMediaTypeToFormat(declaredMediaType); f != "" {
		return f
	}
	return constants.MapExtToFormat(filepath.Ext(path))
}

func (e *Extractor) extractPlainText(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read text file: %w", err)
	}
	return Result{
		Text:       strings.TrimSpace(string(b)),
		Confidence: 1.0, // verbatim read, no recognition uncertainty
		Method:     constants.MethodPlainText,
		PageCount:  1,
		Metadata:   map[string]string{},
	}, nil
}

// countNonWhitespace reports how many non-whitespace runes s contains.
func countNonWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
