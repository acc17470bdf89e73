package ingestion

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const (
	// MinExtractedTextLength is the minimum text length required for successful extraction
	MinExtractedTextLength = 50
	// BinarySampleSize is the number of bytes to sample for binary detection
	BinarySampleSize = 1000
	// BinaryThreshold is the proportion of non-printable characters that indicates binary data
	BinaryThreshold = 0.3
)

var (
	// ErrUnsupportedFileType is returned for extensions the extractor cannot read
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrBinaryOutput is returned when the extracted content still looks binary
	ErrBinaryOutput = errors.New("extracted content appears to be binary")
	// ErrTextTooShort is returned when extraction yields less than the configured minimum
	ErrTextTooShort = errors.New("extracted text is too short (likely failed extraction)")

	xmlTagPattern = regexp.MustCompile(`<[^>]+>`)
)

// SupportedExtensions lists the file types the extractor reads
var SupportedExtensions = []string{".pdf", ".docx", ".doc", ".txt"}

// Extractor turns a stored document into plain text
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractionError reports a document whose text could not be recovered
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// DocumentExtractor extracts text from PDF, DOCX, DOC, or TXT files.
// PDF and DOC rely on the pdftotext (poppler-utils) and antiword binaries.
type DocumentExtractor struct {
	MinTextLength int
}

// NewDocumentExtractor creates an extractor. A negative minimum falls back to MinExtractedTextLength.
func NewDocumentExtractor(minTextLength int) *DocumentExtractor {
	if minTextLength < 0 {
		minTextLength = MinExtractedTextLength
	}
	return &DocumentExtractor{MinTextLength: minTextLength}
}

// Extract returns the document text or an *ExtractionError
func (de *DocumentExtractor) Extract(ctx context.Context, path string) (string, error) {
	text, err := de.extract(ctx, path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	if IsBinaryData(text) {
		return "", &ExtractionError{Path: path, Err: ErrBinaryOutput}
	}

	if len(strings.TrimSpace(text)) < de.MinTextLength {
		return "", &ExtractionError{Path: path, Err: ErrTextTooShort}
	}

	return text, nil
}

func (de *DocumentExtractor) extract(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	case ".pdf":
		return extractPDF(ctx, path)
	case ".docx":
		return extractDOCX(path)
	case ".doc":
		return extractDOC(ctx, path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Ext(path))
	}
}

// IsSupported reports whether the extractor can read files with this name
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// extractPDF extracts text from PDF using pdftotext
func extractPDF(ctx context.Context, filePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", filePath, "-")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("PDF extraction requires 'pdftotext' (install poppler-utils): %w", err)
	}
	return string(output), nil
}

// extractDOC extracts text from legacy Word files using antiword
func extractDOC(ctx context.Context, filePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "antiword", filePath)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("DOC extraction requires 'antiword': %w", err)
	}
	return string(output), nil
}

// extractDOCX reads word/document.xml and strips it down to paragraph text
func extractDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer r.Close()

	return docxXMLToText(r.Editable().GetContent()), nil
}

func docxXMLToText(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", "\t")
	content = strings.ReplaceAll(content, "<w:br/>", "\n")
	content = xmlTagPattern.ReplaceAllString(content, "")
	return strings.TrimSpace(html.UnescapeString(content))
}

// IsBinaryData checks if content appears to be binary (PDF/ZIP markers)
func IsBinaryData(content string) bool {
	if len(content) == 0 {
		return false
	}

	if strings.HasPrefix(content, "%PDF-") {
		return true
	}

	// DOCX is a ZIP container: local file header or the end record of an empty archive
	if strings.HasPrefix(content, "PK\x03\x04") || strings.HasPrefix(content, "PK\x05\x06") {
		return true
	}

	sampleSize := min(BinarySampleSize, len(content))
	nonPrintable := 0
	for i := 0; i < sampleSize; i++ {
		ch := content[i]
		if ch < 32 && ch != '\n' && ch != '\r' && ch != '\t' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(sampleSize) > BinaryThreshold
}
