package github

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/eventcall-app/eventcall/internal/common"
)

// EncodeContent serializes v as indented JSON and base64-encodes it for the
// Contents API. The JSON bytes are UTF-8, so non-ASCII content survives the
// round trip unchanged.
func EncodeContent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeContent reverses EncodeContent.
func DecodeContent(encoded string, out any) error {
	data, err := decodeBase64Body(encoded)
	if err != nil {
		return err
	}
	return unmarshalJSON(data, out)
}

// decodeBase64Body decodes a Contents/Blobs API body. GitHub wraps base64
// with newlines every 60 characters, so whitespace is stripped first.
func decodeBase64Body(encoded string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, encoded)

	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %w", common.ErrMalformedResponse, err)
	}
	return data, nil
}

func unmarshalJSON(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: json: %w", common.ErrMalformedResponse, err)
	}
	return nil
}

// SanitizeText normalizes user-supplied text before it is committed:
// control characters are stripped, the general-punctuation block collapses
// to a plain space, and superscript/private-use runes are dropped. Commits
// containing these ranges corrupted JSON files in the field.
func SanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x0000 && r <= 0x001F, r >= 0x007F && r <= 0x009F:
			return -1
		case r >= 0x2000 && r <= 0x206F:
			return ' '
		case r >= 0x2070 && r <= 0x209F:
			return -1
		case unicode.Is(unicode.Co, r):
			return -1
		default:
			return r
		}
	}, s)
}
