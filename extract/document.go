package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

var officeMimeTypes = map[string]string{
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"odt":  "application/vnd.oasis.opendocument.text",
	"doc":  "application/msword",
	"rtf":  "application/rtf",
}

// DocumentExtractor reads PDF, office and HTML documents.
type DocumentExtractor struct {
	logger *slog.Logger
}

// NewDocumentExtractor creates a DocumentExtractor.
func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentExtractor{logger: logger.With("extractor", "document")}
}

// Extract dispatches on the file extension.
func (e *DocumentExtractor) Extract(_ context.Context, name string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch ext := Extension(name); ext {
	case "pdf":
		text, err = e.extractPDF(data)
	case "html", "htm":
		text, err = e.extractHTML(data)
	default:
		mimeType, ok := officeMimeTypes[ext]
		if !ok {
			return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
		}
		text, err = e.extractOffice(data, mimeType)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (e *DocumentExtractor) extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	totalPage := reader.NumPage()
	e.logger.Debug("starting PDF text extraction", "pages", totalPage)

	var b strings.Builder
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("null page encountered", "page", pageIndex)
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	e.logger.Debug("extracted PDF text", "pages", totalPage, "length", b.Len())
	return b.String(), nil
}

func (e *DocumentExtractor) extractOffice(data []byte, mimeType string) (string, error) {
	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", fmt.Errorf("failed to convert document: %w", err)
	}
	e.logger.Debug("extracted office document text", "mime", mimeType, "length", len(result.Body))
	return result.Body, nil
}

func (e *DocumentExtractor) extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, nav, footer").Remove()

	var blocks []string
	doc.Find("title, h1, h2, h3, h4, h5, h6, p, li, td, th, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li, td, th").Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return strings.Join(strings.Fields(doc.Text()), " "), nil
	}
	return strings.Join(blocks, "\n"), nil
}
