package player

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/PizzaHomicide/lectern/internal/playback"
)

// ParseArgs splits a string of command-line arguments, respecting single and double quotes
func ParseArgs(argsString string) []string {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false

	for _, r := range argsString {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if inArg {
		args = append(args, current.String())
	}
	return args
}

var errMalformedDataURI = errors.New("malformed data URI")

// decodeDataURI returns the payload of a data URI, handling both base64 and percent-encoded forms
func decodeDataURI(uri string) ([]byte, error) {
	du, err := playback.ParseDataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedDataURI, err)
	}
	return du.Data, nil
}

// extensionFor picks a file extension for a MIME type.  mpv probes the content, so this only helps humans.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
