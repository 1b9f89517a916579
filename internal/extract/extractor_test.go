package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/doc-enricher/constants"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeRunner scripts the external binaries so no poppler or tesseract
// install is needed.
type fakeRunner struct {
	pdftotextOut string
	pdftotextErr error

	ppmPages int // page images to fabricate
	ppmErr   error

	tsvByPage map[int]string // 1-based page -> tesseract TSV output
	tsvSingle string         // used when OCRing a plain image
	tessErr   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	switch {
	case strings.Contains(name, "pdftotext"):
		return []byte(f.pdftotextOut), nil, f.pdftotextErr
	case strings.Contains(name, "pdftoppm"):
		if f.ppmErr != nil {
			return nil, []byte("ppm boom"), f.ppmErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= f.ppmPages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("img"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case strings.Contains(name, "tesseract"):
		if f.tessErr != nil {
			return nil, []byte("tess boom"), f.tessErr
		}
		img := filepath.Base(args[0])
		for page, tsv := range f.tsvByPage {
			if strings.HasSuffix(img, fmt.Sprintf("-%d.png", page)) {
				return []byte(tsv), nil, nil
			}
		}
		return []byte(f.tsvSingle), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected command %q", name)
}

func newTestExtractor(r Runner) *Extractor {
	e := NewExtractor(Config{}, testLogger)
	e.runner = r
	return e
}

func tsv(rows ...string) string {
	header := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext"
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func tsvWord(conf float64, word string) string {
	return fmt.Sprintf("5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t%g\t%s", conf, word)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestExtractDirectPDF(t *testing.T) {
	text := "Hello world, this is a test document with more than fifty characters of content."
	r := &fakeRunner{pdftotextOut: text + "\f"}
	e := newTestExtractor(r)

	path := writeFile(t, "doc.pdf", []byte("%PDF-1.7 fake"))
	res := e.Extract(context.Background(), path, "application/pdf")

	if res.Method != constants.MethodDirectPDF {
		t.Fatalf("method = %q, want %q", res.Method, constants.MethodDirectPDF)
	}
	if res.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", res.Confidence)
	}
	if res.Text != text {
		t.Errorf("text = %q, want %q", res.Text, text)
	}
	if res.PageCount != 1 {
		t.Errorf("pages = %d, want 1", res.PageCount)
	}
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	r := &fakeRunner{
		pdftotextOut: "   \n ", // trivial text layer
		ppmPages:     2,
		tsvByPage: map[int]string{
			1: tsv(tsvWord(90, "invoice")),
			2: tsv(tsvWord(70, "total")),
		},
	}
	e := newTestExtractor(r)

	path := writeFile(t, "scan.pdf", []byte("%PDF-1.4 fake"))
	res := e.Extract(context.Background(), path, "application/pdf")

	if res.Method != constants.MethodPDFOCR {
		t.Fatalf("method = %q, want %q", res.Method, constants.MethodPDFOCR)
	}
	if res.PageCount != 2 {
		t.Errorf("pages = %d, want 2", res.PageCount)
	}
	// page confidences 0.9 and 0.7, mean 0.8
	if math.Abs(res.Confidence-0.8) > 1e-9 {
		t.Errorf("confidence = %v, want 0.8", res.Confidence)
	}
	if !strings.Contains(res.Text, "invoice") || !strings.Contains(res.Text, "total") {
		t.Errorf("text = %q, missing ocr words", res.Text)
	}
}

func TestExtractImageFiltersLowConfidenceWords(t *testing.T) {
	r := &fakeRunner{
		tsvSingle: tsv(
			tsvWord(90, "receipt"),
			tsvWord(80, "paid"),
			tsvWord(20, "noise"), // below the floor, dropped
			"4\t1\t1\t1\t1\t0\t0\t0\t10\t10\t-1\t", // structural row
		),
	}
	e := newTestExtractor(r)

	// real PNG magic so content sniffing resolves IMAGE
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	path := writeFile(t, "photo.png", png)
	res := e.Extract(context.Background(), path, "")

	if res.Method != constants.MethodImageOCR {
		t.Fatalf("method = %q, want %q", res.Method, constants.MethodImageOCR)
	}
	if res.Text != "receipt paid" {
		t.Errorf("text = %q, want %q", res.Text, "receipt paid")
	}
	if math.Abs(res.Confidence-0.85) > 1e-9 {
		t.Errorf("confidence = %v, want 0.85", res.Confidence)
	}
	if res.PageCount != 1 {
		t.Errorf("pages = %d, want 1", res.PageCount)
	}
}

func TestExtractPlainText(t *testing.T) {
	e := newTestExtractor(&fakeRunner{})
	path := writeFile(t, "notes.txt", []byte("  plain text body\n"))

	res := e.Extract(context.Background(), path, "text/plain; charset=utf-8")

	if res.Method != constants.MethodPlainText {
		t.Fatalf("method = %q, want %q", res.Method, constants.MethodPlainText)
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", res.Confidence)
	}
	if res.Text != "plain text body" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractUnsupportedTypeDegrades(t *testing.T) {
	e := newTestExtractor(&fakeRunner{})
	path := writeFile(t, "blob.bin", []byte{0x00, 0x01, 0x02, 0x03})

	res := e.Extract(context.Background(), path, "application/octet-stream")

	if res.Method != constants.MethodError {
		t.Fatalf("method = %q, want %q", res.Method, constants.MethodError)
	}
	if res.Confidence != 0 || res.Text != "" {
		t.Errorf("got confidence=%v text=%q, want zero result", res.Confidence, res.Text)
	}
	if res.Metadata["error"] == "" {
		t.Errorf("expected error detail in metadata")
	}
}

func TestExtractPDFToolFailureDegrades(t *testing.T) {
	r := &fakeRunner{
		pdftotextErr: fmt.Errorf("exit status 1"),
		ppmErr:       fmt.Errorf("exit status 1"),
	}
	e := newTestExtractor(r)

	path := writeFile(t, "broken.pdf", []byte("%PDF-1.5 fake"))
	res := e.Extract(context.Background(), path, "application/pdf")

	if res.Method != constants.MethodError {
		t.Fatalf("method = %q, want %q", res.Method, constants.MethodError)
	}
	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", res.Confidence)
	}
}

func TestParseTSV(t *testing.T) {
	page := parseTSV(tsv(
		tsvWord(95, "alpha"),
		tsvWord(45, "beta"),
		tsvWord(30, "edge"), // exactly at the floor, dropped
		tsvWord(10, "junk"),
	))
	if page.words != 2 {
		t.Fatalf("words = %d, want 2", page.words)
	}
	if page.text != "alpha beta" {
		t.Errorf("text = %q", page.text)
	}
	if math.Abs(page.confidence-0.7) > 1e-9 {
		t.Errorf("confidence = %v, want 0.7", page.confidence)
	}
}

func TestParseTSVEmpty(t *testing.T) {
	page := parseTSV("level\tpage\n")
	if page.words != 0 || page.confidence != 0 || page.text != "" {
		t.Errorf("expected zero page, got %+v", page)
	}
}
