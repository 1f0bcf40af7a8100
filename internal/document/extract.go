// Package document turns uploaded resumes and job descriptions into plain
// text. PDF, DOCX and plain text are supported.
package document

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/config"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/metrics"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/resilience"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimeText = "text/plain"
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Extractor enforces the size and time limits around text extraction.
type Extractor struct {
	maxBytes int64
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewExtractor builds an Extractor. m may be nil.
func NewExtractor(cfg config.DocumentsConfig, m *metrics.Metrics) *Extractor {
	return &Extractor{
		maxBytes: cfg.MaxBytes,
		timeout:  cfg.ExtractTimeout,
		metrics:  m,
		logger:   slog.Default().With("component", "document-extractor"),
	}
}

// Extract uses the default limits and records no metrics.
func Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	return NewExtractor(config.Default().Documents, nil).Extract(ctx, mimeType, data)
}

// Extract returns the plain text of a document of the given media type.
func (e *Extractor) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	mimeType = baseType(mimeType)
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		e.record(mimeType, "too_large")
		return "", fmt.Errorf("%w: document is %d bytes, limit is %d", apperrors.ErrDocumentTooLarge, len(data), e.maxBytes)
	}

	var text string
	err := resilience.WithTimeout(ctx, e.timeout, "extract "+mimeType, func(ctx context.Context) error {
		var err error
		text, err = extractText(ctx, mimeType, data)
		return err
	})
	if err != nil {
		e.record(mimeType, "error")
		e.logger.Warn("extraction failed", "type", mimeType, "bytes", len(data), "error", err)
		return "", err
	}
	e.record(mimeType, "ok")
	e.logger.Debug("document extracted", "type", mimeType, "bytes", len(data), "chars", len(text))
	return text, nil
}

func (e *Extractor) record(mimeType, status string) {
	if e.metrics == nil {
		return
	}
	e.metrics.DocumentsExtracted.WithLabelValues(shortType(mimeType), status).Inc()
}

func extractText(ctx context.Context, mimeType string, data []byte) (text string, err error) {
	// The PDF parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: unreadable %s document: %v", apperrors.ErrUnsupportedDocument, shortType(mimeType), r)
		}
	}()
	switch mimeType {
	case MimeText:
		return strings.ToValidUTF8(string(data), " "), nil
	case MimePDF:
		return extractPDFText(ctx, data)
	case MimeDOCX:
		return extractDocxText(data)
	default:
		return "", fmt.Errorf("%w: unsupported file type: %q", apperrors.ErrUnsupportedDocument, mimeType)
	}
}

// extractPDFText checks ctx between pages so a timed out extraction stops
// instead of parsing the rest of the document in the background.
func extractPDFText(ctx context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read pdf: %v", apperrors.ErrUnsupportedDocument, err)
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("pdf extraction stopped before page %d: %w", i, err)
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: failed to read pdf page %d: %v", apperrors.ErrUnsupportedDocument, i, err)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse docx: %v", apperrors.ErrUnsupportedDocument, err)
	}
	defer doc.Close()
	return docxPlainText(doc.Editable().GetContent())
}

// docxPlainText keeps the character data of word/document.xml and breaks
// lines at paragraph, tab and break elements.
func docxPlainText(body string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(body))
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed docx body: %v", apperrors.ErrUnsupportedDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// DetectType guesses the media type from the file extension and falls back
// to content sniffing.
func DetectType(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".md":
		return MimeText
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	}
	sniffed := baseType(http.DetectContentType(data))
	switch {
	case sniffed == "application/zip" && bytes.Contains(data, []byte("word/")):
		return MimeDOCX
	case strings.HasPrefix(sniffed, "text/"):
		return MimeText
	}
	return sniffed
}

func baseType(mimeType string) string {
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func shortType(mimeType string) string {
	switch mimeType {
	case MimeText:
		return "text"
	case MimePDF:
		return "pdf"
	case MimeDOCX:
		return "docx"
	default:
		return "other"
	}
}
