package domain

import "context"

// LessonRepository defines the interface for lesson data access.  Lessons are owned by the LMS; this application only
// ever reads them.
type LessonRepository interface {
	// GetCourse retrieves a course and the summary of its lessons.  Inline content is not included in the summaries.
	GetCourse(ctx context.Context, courseID string) (*Course, error)

	// GetLesson retrieves the complete lesson record, including any inline content
	GetLesson(ctx context.Context, lessonID string) (*Lesson, error)
}
