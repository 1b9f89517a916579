package extract

import (
	"bytes"
	"net/http"
	"os"

	"github.com/joseph-ayodele/doc-enricher/constants"
)

// sniffFormat classifies a file by its leading bytes. Returns "" when
// the content is inconclusive (caller falls back to declared type and
// extension).
func sniffFormat(path string) constants.FileFormat {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if n == 0 || (err != nil && n <= 0) {
		return ""
	}
	buf = buf[:n]

	if bytes.HasPrefix(buf, []byte("%PDF-")) {
		return constants.PDF
	}
	return constants.MapMediaTypeToFormat(http.DetectContentType(buf))
}
