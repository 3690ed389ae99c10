package normalisers

import (
	"mime"
	"path/filepath"
	"strings"
)

// extensionTypes covers policy formats the platform MIME table may lack.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".text":     "text/plain",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".csv":      "text/csv",
	".json":     "application/json",
}

// DetectMIMEType returns the MIME type for a file name, without parameters.
// Unknown extensions yield "application/octet-stream".
func DetectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if media, _, err := mime.ParseMediaType(t); err == nil {
			return media
		}
	}
	return "application/octet-stream"
}

// IsSupported reports whether a file name maps to a MIME type in types.
func IsSupported(name string, types []string) bool {
	detected := DetectMIMEType(name)
	for _, t := range types {
		if t == detected {
			return true
		}
	}
	return false
}
