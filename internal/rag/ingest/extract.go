package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var ErrUnsupportedType = errors.New("unsupported content type")

var blankRuns = regexp.MustCompile(`\n{3,}`)

// cleanText drops NUL bytes, squeezes 3+ newlines to a blank line and trims.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt", ".md":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

// Extract returns the cleaned text of the file at path. Failures are
// *commonModels.ExtractionError scoped to that file.
func Extract(ctx context.Context, path string) (string, error) {
	var (
		text string
		err  error
	)
	switch getDocType(path) {
	case commonModels.PDF:
		text, err = extractPDF(ctx, path)
	case commonModels.DOCX, commonModels.TXT:
		text, err = extractDocxTxtRtf(path)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
	if err != nil {
		return "", &commonModels.ExtractionError{File: filepath.Base(path), Err: err}
	}
	return cleanText(text), nil
}

// extractPDF reads page by page and joins pages with a newline, in page order.
// A document where pages exist but none could be parsed is a failure.
func extractPDF(ctx context.Context, path string) (string, error) {
	log := logger().With("path", path)
	f, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	pages := make([]string, 0, numPages)
	var lastErr error
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := f.Page(i)
		if page.V.IsNull() {
			log.Debug("extractPDF", "null page", i)
			continue
		}

		content, err := protectExtract(ctx, page)
		if err != nil {
			// one bad page does not lose the rest of the document
			log.Warn("Error parsing page content", "page", i, "error", err)
			lastErr = fmt.Errorf("page %d: %w", i, err)
			continue
		}
		pages = append(pages, content)
	}
	if len(pages) == 0 && lastErr != nil {
		return "", fmt.Errorf("none of %d pages could be parsed: %w", numPages, lastErr)
	}
	return strings.Join(pages, "\n"), nil
}

// extractDocxTxtRtf reads a .odt, .docx, .rtf or plaintext file as one page.
func extractDocxTxtRtf(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

var (
	errNoContentStream = errors.New("page has no content stream")
	errPageTimeout     = errors.New("page extraction timeout")
	errParsersBusy     = errors.New("all page parsers are busy")
)

// GetPlainText cannot be interrupted, so a page that times out keeps its
// goroutine until the parser returns on its own. pageParsers caps how many
// such goroutines can exist at once.
var (
	pageTimeout = config.PageExtractTimeout
	pageParsers = make(chan struct{}, config.MaxPageParsers)
)

// protectExtract bounds GetPlainText, which can spin on malformed content streams.
func protectExtract(ctx context.Context, page pdf.Page) (string, error) {
	timer := time.NewTimer(pageTimeout)
	defer timer.Stop()

	select {
	case pageParsers <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", errParsersBusy
	}

	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() { <-pageParsers }()
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("page parser panic: %v", r)}
			}
		}()
		content, err := pagePlainText(page)
		resChan <- result{content, err}
	}()

	select {
	case r := <-resChan:
		return r.content, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", errPageTimeout
	}
}

// pagePlainText dispatches on the page's Contents. GetPlainText only reads a
// single stream and never returns on anything else, so content arrays go
// through Content and a missing stream is refused up front.
func pagePlainText(page pdf.Page) (string, error) {
	switch page.V.Key("Contents").Kind() {
	case pdf.Stream:
		return page.GetPlainText(nil)
	case pdf.Array:
		return joinTextRuns(page.Content().Text), nil
	default:
		return "", errNoContentStream
	}
}

// joinTextRuns starts a new line whenever the baseline moves.
func joinTextRuns(runs []pdf.Text) string {
	var sb strings.Builder
	for i, t := range runs {
		if i > 0 && math.Abs(t.Y-runs[i-1].Y) > 1 {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.S)
	}
	return sb.String()
}
