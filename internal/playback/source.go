package playback

import (
	"errors"
	"mime"
	"strings"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/vincent-petithory/dataurl"
)

const defaultContentType = "video/mp4"

// SourceKind records which rule produced a source
type SourceKind string

const (
	SourceNone     SourceKind = ""
	SourceExternal SourceKind = "external"
	SourceDataURI  SourceKind = "data_uri"
	SourceInline   SourceKind = "inline"
)

// Source is the playable URI and MIME type derived from a lesson
type Source struct {
	URI      string
	MimeType string
	Kind     SourceKind
}

// Playable reports whether the source can be attached to a media element
func (s Source) Playable() bool {
	return s.URI != ""
}

// ResolveSource derives the source for a lesson.  The first matching rule wins:
//  1. an external video URL, used verbatim
//  2. inline content that is already a complete data URI, used verbatim
//  3. raw inline content, wrapped into a base64 data URI with the declared content type (video/mp4 by default)
//  4. nothing playable
//
// The function is pure, so it is simply re-run whenever the active lesson changes.
func ResolveSource(lesson domain.Lesson) Source {
	if url := strings.TrimSpace(lesson.VideoURL); url != "" {
		return Source{URI: lesson.VideoURL, MimeType: mimeFromURL(url), Kind: SourceExternal}
	}

	if lesson.Content == "" {
		return Source{}
	}

	if isDataURI(lesson.Content) {
		return Source{URI: lesson.Content, MimeType: mimeFromDataURI(lesson.Content), Kind: SourceDataURI}
	}

	contentType := lesson.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	return Source{
		URI:      "data:" + contentType + ";base64," + lesson.Content,
		MimeType: contentType,
		Kind:     SourceInline,
	}
}

const dataScheme = "data:"

var errNotDataURI = errors.New("not a data URI")

// ParseDataURI decodes an embedded-data URI.  The scheme is matched case-insensitively.
func ParseDataURI(uri string) (*dataurl.DataURL, error) {
	if len(uri) < len(dataScheme) || !strings.EqualFold(uri[:len(dataScheme)], dataScheme) {
		return nil, errNotDataURI
	}
	return dataurl.DecodeString(dataScheme + uri[len(dataScheme):])
}

// isDataURI checks for a complete embedded-data URI with a payload that decodes
func isDataURI(s string) bool {
	_, err := ParseDataURI(s)
	return err == nil
}

// mimeFromDataURI is the media type declared in a data URI header, e.g. "data:video/webm;base64,..."
func mimeFromDataURI(uri string) string {
	du, err := ParseDataURI(uri)
	if err != nil {
		return defaultContentType
	}
	return du.ContentType()
}

var extensionMimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".m3u8": "application/vnd.apple.mpegurl",
}

// mimeFromURL guesses the MIME type from the path extension, falling back to the system MIME table.  External URLs
// are used verbatim regardless.
func mimeFromURL(url string) string {
	path, _, _ := strings.Cut(url, "?")
	path, _, _ = strings.Cut(path, "#")
	i := strings.LastIndex(path, ".")
	if i < 0 || strings.Contains(path[i:], "/") {
		return defaultContentType
	}
	ext := strings.ToLower(path[i:])
	if m, ok := extensionMimeTypes[ext]; ok {
		return m
	}
	if m, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil {
		return m
	}
	return defaultContentType
}
