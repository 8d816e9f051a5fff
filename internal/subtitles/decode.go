package subtitles

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"transsrt/internal/services"
)

// Decode converts uploaded bytes to text. UTF-8 and UTF-16 byte-order marks
// select the decoder and are stripped; input without a BOM must be valid UTF-8.
func Decode(data []byte) (string, error) {
	decoder := unicode.BOMOverride(encoding.Nop.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidFormat, "subtitles", "decode", "unreadable text encoding", err)
	}
	if !utf8.Valid(out) {
		return "", services.Wrap(services.ErrInvalidFormat, "subtitles", "decode", "file is not valid UTF-8 or UTF-16 text", nil)
	}
	return string(out), nil
}
