package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/doc-enricher/constants"
)

// extractPDF runs the two-tier strategy: a cheap structural pass via
// pdftotext, then per-page OCR only when the text layer is missing or
// trivial (scanned documents).
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	text, pages, err := e.pdfToText(ctx, path)
	if err == nil && countNonWhitespace(text) >= minDirectTextChars {
		return Result{
			Text:       strings.TrimSpace(text),
			Confidence: directPDFConfidence,
			Method:     constants.MethodDirectPDF,
			PageCount:  pages,
			Metadata:   map[string]string{},
		}, nil
	}
	if err != nil {
		e.logger.Warn("structural pdf extraction failed, falling back to ocr", "path", path, "error", err)
	} else {
		e.logger.Debug("pdf text layer trivial, falling back to ocr", "path", path, "chars", countNonWhitespace(text))
	}
	return e.ocrPDFPages(ctx, path)
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(strings.TrimRight(text, "\f\n "), "\f")
	return text, pages, nil
}

// ocrPDFPages rasterizes every page at the configured DPI and OCRs
// each one. The overall confidence is the mean of per-page scores.
func (e *Extractor) ocrPDFPages(ctx context.Context, path string) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "de-pp-*")
	if err != nil {
		return Result{}, fmt.Errorf("mkdir temp: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return Result{}, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// collect generated pngs (pdftoppm zero-pads page numbers, so a
	// lexicographic sort preserves page order)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Result{}, fmt.Errorf("pdftoppm produced no page images")
	}

	var b strings.Builder
	var confSum float64
	for _, img := range matches {
		page, err := e.ocrFile(ctx, img)
		if err != nil {
			return Result{}, fmt.Errorf("ocr page %s: %w", filepath.Base(img), err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(page.text)
		confSum += page.confidence
	}

	return Result{
		Text:       strings.TrimSpace(b.String()),
		Confidence: confSum / float64(len(matches)),
		Method:     constants.MethodPDFOCR,
		PageCount:  len(matches),
		Metadata:   map[string]string{"dpi": fmt.Sprintf("%d", e.cfg.DPI)},
	}, nil
}
