package http

import "bytes"

const (
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeTextPlain   = "text/plain"
)

var magicPrefixes = []struct {
	prefix      []byte
	contentType string
}{
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
	{[]byte{0x47, 0x49, 0x46, 0x38}, "image/gif"},
	{[]byte{0x25, 0x50, 0x44, 0x46}, "application/pdf"},
	{[]byte{0x50, 0x4B, 0x03, 0x04}, "application/zip"},
	{[]byte{0x50, 0x4B, 0x05, 0x06}, "application/zip"},
	{[]byte{0x50, 0x4B, 0x07, 0x08}, "application/zip"},
}

// DetectContentType guesses a MIME type from the leading bytes of data.
// Checks run in order and the first match wins: magic prefixes come before
// the plain-text test.
func DetectContentType(data []byte) string {
	if len(data) < 4 {
		return ContentTypeOctetStream
	}

	// JPEG only pins the first three bytes.
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	for _, m := range magicPrefixes {
		if bytes.Equal(data[:4], m.prefix) {
			return m.contentType
		}
	}

	for _, b := range data {
		if !isASCIIGraphic(b) && !isASCIIWhitespace(b) {
			return ContentTypeOctetStream
		}
	}
	return ContentTypeTextPlain
}

func isASCIIGraphic(b byte) bool {
	return b >= '!' && b <= '~'
}

func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
