package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"docchat/internal/contextutil"
)

const docxBodyPart = "word/document.xml"

type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

// docxText joins the body paragraphs of a DOCX archive with newlines.
func docxText(ctx context.Context, data []byte) string {
	logger := contextutil.LoggerFromContext(ctx)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.WarnContext(ctx, "failed to open docx archive", "error", err)
		return ""
	}

	for _, file := range reader.File {
		if file.Name != docxBodyPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			logger.WarnContext(ctx, "failed to open docx body", "error", err)
			return ""
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			logger.WarnContext(ctx, "failed to read docx body", "error", err)
			return ""
		}
		return paragraphs(ctx, content)
	}
	return ""
}

func paragraphs(ctx context.Context, content []byte) string {
	var doc docxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to parse docx body", "error", err)
		return ""
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
