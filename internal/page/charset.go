package page

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// MaxDocumentSize limits a single document to 10MB
const MaxDocumentSize = 10 * 1024 * 1024

// IsHTML reports whether a response body is an HTML document. The declared
// content type wins when present; otherwise the body is sniffed.
func IsHTML(body []byte, contentType string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "text/html", "application/xhtml+xml":
			return true
		case "application/octet-stream", "text/plain":
			// servers commonly mislabel documents, so sniff these
		default:
			return false
		}
	}
	mt := mimetype.Detect(body)
	return mt.Is("text/html") || mt.Is("application/xhtml+xml")
}

// DetectCharset guesses the charset of body, defaulting to utf-8.
func DetectCharset(body []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(body)
	if err != nil || result == nil || result.Charset == "" {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// fallbackEncoding is what charset.DetermineEncoding reports when neither a
// BOM, the content type, a <meta> tag nor UTF-8 validity settled the charset.
const fallbackEncoding = "windows-1252"

// documentCharset picks the charset of body: BOM, then the content type, then
// a <meta> prescan of the first 1024 bytes, then statistical detection.
func documentCharset(body []byte, contentType string) string {
	if _, name, certain := charset.DetermineEncoding(body, contentType); certain || name != fallbackEncoding {
		return name
	}
	return DetectCharset(body)
}

// utf8Reader converts body to UTF-8 using the charset found by
// documentCharset.
func utf8Reader(body []byte, contentType string) (io.Reader, string, error) {
	if len(body) > MaxDocumentSize {
		return nil, "", fmt.Errorf("document exceeds maximum size of %d bytes", MaxDocumentSize)
	}

	label := strings.ToLower(documentCharset(body, contentType))

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return bytes.NewReader(body), "utf-8", nil
	}
	return r, label, nil
}
