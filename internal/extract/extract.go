// Package extract turns uploaded file bytes into plain text.
package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Text returns the plain text of an uploaded file, dispatching on its extension.
// PDF and DOCX files are parsed; anything else is read as UTF-8 with invalid
// sequences dropped. Unreadable input yields partial or empty text, never an error.
func Text(ctx context.Context, fileName string, data []byte) string {
	name := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return pdfText(ctx, data)
	case strings.HasSuffix(name, ".docx"):
		return docxText(ctx, data)
	default:
		return decodeUTF8(data)
	}
}

func decodeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}
