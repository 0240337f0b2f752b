package domain

// Lesson is a single playable unit of course content. Lessons are immutable once fetched and are swapped wholesale
// when the learner selects another one.
type Lesson struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title" validate:"required"`
	// VideoURL is an external video location.  Optional.
	VideoURL string `json:"videoUrl,omitempty" validate:"omitempty,uri"`
	// Content is either a complete data URI or a raw base64 encoded video payload.  Optional.
	Content string `json:"content,omitempty"`
	// ContentType is the MIME type of Content when it is a raw payload
	ContentType string `json:"contentType,omitempty"`
	// Duration in seconds as declared by the LMS.  The player trusts the media metadata over this value.
	Duration float64 `json:"duration" validate:"gte=0"`

	ModuleID    string `json:"moduleId,omitempty"`
	ModuleTitle string `json:"moduleTitle,omitempty"`
	Position    int    `json:"position"`
}

// HasInlineContent reports whether the lesson carries an embedded payload rather than a link
func (l Lesson) HasInlineContent() bool {
	return l.Content != ""
}

// Course groups the lessons of a course in display order
type Course struct {
	ID      string
	Title   string
	Lessons []Lesson
}
