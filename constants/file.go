package constants

import "strings"

// FileFormat is the coarse input class the extraction engine switches on.
type FileFormat string

const (
	PDF   FileFormat = "PDF"
	IMAGE FileFormat = "IMAGE"
	TEXT  FileFormat = "TEXT"
)

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"txt":  {},
	"md":   {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a FileFormat.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "tif", "tiff", "bmp", "gif", "webp":
		return IMAGE
	case "txt", "md", "text", "log", "csv":
		return TEXT
	default:
		return ""
	}
}

// MapMediaTypeToFormat maps a declared or sniffed media type to a FileFormat.
// Returns "" when the media type is inconclusive.
func MapMediaTypeToFormat(mediaType string) FileFormat {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	// strip parameters, e.g. "text/plain; charset=utf-8"
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case mt == "application/pdf":
		return PDF
	case strings.HasPrefix(mt, "image/"):
		return IMAGE
	case strings.HasPrefix(mt, "text/"):
		return TEXT
	default:
		return ""
	}
}
