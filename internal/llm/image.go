package llm

import (
	"encoding/base64"
	"os"
	"strings"

	"github.com/h2non/filetype"
)

// readFileFunc reads attachment bytes; tests may replace it to force errors.
var readFileFunc = os.ReadFile

// imageReadPlaceholder is the text part substituted when an attachment cannot
// be read. A read failure must not abort the call.
const imageReadPlaceholder = "[the attached image could not be read]"

// inlineImage holds a base64 payload plus its MIME type, ready to embed in a
// backend request.
type inlineImage struct {
	MIMEType string
	Data     string
}

// loadInlineImage reads the image at path and returns its base64 payload. The
// MIME type is sniffed from the magic bytes; when the sniff is inconclusive it
// falls back to the extension (.png -> image/png, else image/jpeg).
func loadInlineImage(path string) (inlineImage, bool) {
	data, err := readFileFunc(path)
	if err != nil {
		return inlineImage{}, false
	}
	return inlineImage{
		MIMEType: guessImageMIME(path, data),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, true
}

// guessImageMIME sniffs the MIME type from content, falling back to a
// best-effort extension guess.
func guessImageMIME(path string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind.MIME.Value != "" {
		return kind.MIME.Value
	}
	if strings.HasSuffix(strings.ToLower(path), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
