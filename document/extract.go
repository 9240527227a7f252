package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// contentSelectors are tried before falling back to the whole body.
const contentSelectors = "article, .content, #content, main, .post, #main, .entry-content, .post-content, .blog-post"

var ErrUnsupported = errors.New("unsupported document type")

// Extractor turns uploaded narration documents into plain text.
type Extractor struct {
	logger     *slog.Logger
	httpClient *http.Client
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger:     logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Extract picks a decoder from the file extension.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	var text string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", "":
		text, err = e.ExtractTextFromPlain(data)
	case ".pdf":
		text, err = e.ExtractTextFromPDF(data)
	case ".docx":
		text, err = e.ExtractTextFromWord(data)
	case ".html", ".htm":
		text, err = e.ExtractTextFromHTML(bytes.NewReader(data))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
	}
	if err != nil {
		return "", err
	}
	return cleanContent(text), nil
}

func (e *Extractor) ExtractTextFromPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text document is not valid UTF-8")
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

func (e *Extractor) ExtractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	totalPage := reader.NumPage()
	var fullText strings.Builder
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered", slog.Int("page_number", pageIndex))
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}
		fullText.WriteString(text)
		fullText.WriteString("\n")
	}

	if strings.TrimSpace(fullText.String()) == "" {
		return "", fmt.Errorf("no text content extracted from PDF")
	}
	e.logger.Info("Extracted text from PDF",
		slog.Int("total_pages", totalPage),
		slog.Int("total_text_length", fullText.Len()))
	return fullText.String(), nil
}

func (e *Extractor) ExtractTextFromWord(data []byte) (string, error) {
	result, err := docconv.Convert(bytes.NewReader(data), docxMimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to convert Word document: %w", err)
	}
	if strings.TrimSpace(result.Body) == "" {
		return "", fmt.Errorf("no text content extracted from Word document")
	}
	return result.Body, nil
}

// ExtractTextFromHTML prefers the main content areas of a page.
func (e *Extractor) ExtractTextFromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}
	doc.Find("script, style, nav, footer, header").Remove()

	var content strings.Builder
	doc.Find(contentSelectors).Each(func(i int, s *goquery.Selection) {
		content.WriteString(s.Text())
		content.WriteString("\n")
	})
	if strings.TrimSpace(content.String()) == "" {
		return doc.Find("body").Text(), nil
	}
	return content.String(), nil
}

// FetchURL downloads a page and extracts its text.
func (e *Extractor) FetchURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching content: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error fetching content: HTTP status %d", resp.StatusCode)
	}
	text, err := e.ExtractTextFromHTML(resp.Body)
	if err != nil {
		return "", err
	}
	return cleanContent(text), nil
}

var whitespace = regexp.MustCompile(`\s+`)

func cleanContent(content string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(content, " "))
}
