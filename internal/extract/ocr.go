package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/doc-enricher/constants"
)

// Words the OCR engine scores below this (0..100) are noise: stray
// marks and misread punctuation that would drag down both the text and
// the reported confidence.
const wordConfidenceFloor = 30

type ocrPage struct {
	text       string
	confidence float64 // 0..1, mean of kept word confidences
	words      int
}

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	page, err := e.ocrFile(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:       page.text,
		Confidence: page.confidence,
		Method:     constants.MethodImageOCR,
		PageCount:  1,
		Metadata:   map[string]string{"lang": e.cfg.TesseractLang},
	}, nil
}

// ocrFile runs tesseract in TSV mode against one image and keeps only
// words above the confidence floor.
func (e *Extractor) ocrFile(ctx context.Context, path string) (ocrPage, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return ocrPage{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return parseTSV(string(out)), nil
}

// parseTSV extracts words and confidences from tesseract TSV output.
// Layout: level page_num block_num par_num line_num word_num left top
// width height conf text. conf is -1 for non-word rows.
func parseTSV(out string) ocrPage {
	var words []string
	var confSum float64
	lines := strings.Split(out, "\n")
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue // skip header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.TrimSpace(cols[11])
		if word == "" || conf <= wordConfidenceFloor {
			continue
		}
		words = append(words, word)
		confSum += conf
	}
	if len(words) == 0 {
		return ocrPage{}
	}
	return ocrPage{
		text:       strings.Join(words, " "),
		confidence: confSum / float64(len(words)) / 100.0,
		words:      len(words),
	}
}
