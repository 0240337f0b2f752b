package lms

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when the LMS has no record with the requested ID
var ErrNotFound = errors.New("not found")

type LessonRepository struct {
	client   *Client
	validate *validator.Validate
}

func NewLessonRepository(client *Client) domain.LessonRepository {
	return &LessonRepository{
		client:   client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type lessonRecord struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	VideoURL    string  `json:"videoUrl"`
	Content     string  `json:"content"`
	ContentType string  `json:"contentType"`
	Duration    float64 `json:"duration"`
	Position    int     `json:"position"`
	Module      *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"module"`
}

func (r lessonRecord) toDomain(moduleID, moduleTitle string) domain.Lesson {
	if r.Module != nil {
		moduleID, moduleTitle = r.Module.ID, r.Module.Title
	}
	return domain.Lesson{
		ID:          r.ID,
		Title:       r.Title,
		VideoURL:    r.VideoURL,
		Content:     r.Content,
		ContentType: r.ContentType,
		Duration:    r.Duration,
		ModuleID:    moduleID,
		ModuleTitle: moduleTitle,
		Position:    r.Position,
	}
}

// GetCourse fetches the course outline.  Lessons come back in module order, then by position within each module.
// Records failing validation are skipped so one bad lesson does not hide the rest of the course.
func (r *LessonRepository) GetCourse(ctx context.Context, courseID string) (*domain.Course, error) {
	query := `
        query ($id: ID!) {
            course(id: $id) {
                id
                title
                modules {
                    id
                    title
                    lessons {
                        id
                        title
                        videoUrl
                        contentType
                        duration
                        position
                    }
                }
            }
        }
    `

	var response struct {
		Course *struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Modules []struct {
				ID      string         `json:"id"`
				Title   string         `json:"title"`
				Lessons []lessonRecord `json:"lessons"`
			} `json:"modules"`
		} `json:"course"`
	}

	if err := r.client.Query(ctx, query, map[string]any{"id": courseID}, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch course %s: %w", courseID, err)
	}
	if response.Course == nil {
		return nil, fmt.Errorf("course %s: %w", courseID, ErrNotFound)
	}

	course := &domain.Course{
		ID:    response.Course.ID,
		Title: response.Course.Title,
	}
	for _, module := range response.Course.Modules {
		records := module.Lessons
		sort.SliceStable(records, func(i, j int) bool { return records[i].Position < records[j].Position })

		for _, record := range records {
			lesson := record.toDomain(module.ID, module.Title)
			if err := r.validate.Struct(lesson); err != nil {
				log.Warn("Skipping invalid lesson record", "lesson_id", record.ID, "module_id", module.ID, "error", err)
				continue
			}
			course.Lessons = append(course.Lessons, lesson)
		}
	}

	log.Info("Fetched course", "course_id", course.ID, "lessons", len(course.Lessons))
	return course, nil
}

// GetLesson fetches a complete lesson including inline content
func (r *LessonRepository) GetLesson(ctx context.Context, lessonID string) (*domain.Lesson, error) {
	query := `
        query ($id: ID!) {
            lesson(id: $id) {
                id
                title
                videoUrl
                content
                contentType
                duration
                position
                module {
                    id
                    title
                }
            }
        }
    `

	var response struct {
		Lesson *lessonRecord `json:"lesson"`
	}

	if err := r.client.Query(ctx, query, map[string]any{"id": lessonID}, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch lesson %s: %w", lessonID, err)
	}
	if response.Lesson == nil {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, ErrNotFound)
	}

	lesson := response.Lesson.toDomain("", "")
	if err := r.validate.Struct(lesson); err != nil {
		return nil, fmt.Errorf("lesson %s is invalid: %w", lessonID, err)
	}

	log.Debug("Fetched lesson", "lesson_id", lesson.ID, "inline", lesson.HasInlineContent())
	return &lesson, nil
}
