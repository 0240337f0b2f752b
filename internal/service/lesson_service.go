package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// ErrNoCourse is returned by LoadCourse when no course ID is configured
var ErrNoCourse = errors.New("no course configured")

type LessonService struct {
	repo     domain.LessonRepository
	courseID string

	mu     sync.Mutex
	course *domain.Course // Local copy of the course outline, only refreshed on request
	full   map[string]domain.Lesson
}

func NewLessonService(repo domain.LessonRepository, courseID string) *LessonService {
	return &LessonService{
		repo:     repo,
		courseID: courseID,
		full:     make(map[string]domain.Lesson),
	}
}

// LoadCourse fetches the course outline from the repository, dropping any cached lesson bodies
func (s *LessonService) LoadCourse(ctx context.Context) error {
	if s.courseID == "" {
		return ErrNoCourse
	}
	course, err := s.repo.GetCourse(ctx, s.courseID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.course = course
	s.full = make(map[string]domain.Lesson)
	s.mu.Unlock()
	return nil
}

// Course returns the cached course, or nil before LoadCourse
func (s *LessonService) Course() *domain.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.course
}

// Lessons returns the cached lesson summaries in course order
func (s *LessonService) Lessons() []domain.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.course == nil {
		return nil
	}
	return s.course.Lessons
}

// Search filters lessons whose title or module title fuzzily matches the query, keeping course order.  An empty query
// matches everything.
func (s *LessonService) Search(query string) []domain.Lesson {
	lessons := s.Lessons()
	if query == "" {
		return lessons
	}
	return lo.Filter(lessons, func(l domain.Lesson, _ int) bool {
		return fuzzy.MatchFold(query, l.Title) || fuzzy.MatchFold(query, l.ModuleTitle)
	})
}

// Fetch returns the playable lesson record.  Summaries with an external URL are complete already; anything else is
// fetched in full once and cached, since inline content is only served by the lesson query.
func (s *LessonService) Fetch(ctx context.Context, lessonID string) (domain.Lesson, error) {
	s.mu.Lock()
	if cached, ok := s.full[lessonID]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	summary, found := s.find(lessonID)
	s.mu.Unlock()

	if found && summary.VideoURL != "" {
		return summary, nil
	}

	lesson, err := s.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return domain.Lesson{}, fmt.Errorf("unable to fetch lesson: %w", err)
	}

	s.mu.Lock()
	s.full[lessonID] = *lesson
	s.mu.Unlock()
	log.Debug("Cached full lesson", "lesson_id", lessonID)
	return *lesson, nil
}

// Next returns the lesson following lessonID in course order
func (s *LessonService) Next(lessonID string) (domain.Lesson, bool) {
	return s.offset(lessonID, 1)
}

// Previous returns the lesson preceding lessonID in course order
func (s *LessonService) Previous(lessonID string) (domain.Lesson, bool) {
	return s.offset(lessonID, -1)
}

// IndexOf returns the position of a lesson in the course, or -1
func (s *LessonService) IndexOf(lessonID string) int {
	_, idx, _ := lo.FindIndexOf(s.Lessons(), func(l domain.Lesson) bool { return l.ID == lessonID })
	return idx
}

func (s *LessonService) offset(lessonID string, delta int) (domain.Lesson, bool) {
	lessons := s.Lessons()
	idx := s.IndexOf(lessonID)
	if idx < 0 {
		return domain.Lesson{}, false
	}
	next := idx + delta
	if next < 0 || next >= len(lessons) {
		return domain.Lesson{}, false
	}
	return lessons[next], true
}

// find looks up a summary; callers hold mu
func (s *LessonService) find(lessonID string) (domain.Lesson, bool) {
	if s.course == nil {
		return domain.Lesson{}, false
	}
	return lo.Find(s.course.Lessons, func(l domain.Lesson) bool { return l.ID == lessonID })
}
