package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"

	"docchat/internal/contextutil"
)

// pdfText extracts text page by page. Pages that fail contribute nothing.
func pdfText(ctx context.Context, data []byte) (text string) {
	logger := contextutil.LoggerFromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.WarnContext(ctx, "pdf parser panicked", "panic", r)
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.WarnContext(ctx, "failed to open pdf", "error", err)
		return ""
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if pageText := pageText(ctx, reader, i); pageText != "" {
			pages = append(pages, pageText)
		}
	}
	return strings.Join(pages, "\n\n")
}

func pageText(ctx context.Context, reader *pdf.Reader, num int) (text string) {
	logger := contextutil.LoggerFromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.DebugContext(ctx, "pdf page extraction panicked", "page", num, "panic", r)
			text = ""
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		logger.DebugContext(ctx, "failed to extract pdf page", "page", num, "error", err)
		return ""
	}
	return text
}
