package lms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const courseResponse = `{
  "data": {
    "course": {
      "id": "go-101",
      "title": "Go 101",
      "modules": [
        {
          "id": "m1",
          "title": "Basics",
          "lessons": [
            {"id": "l2", "title": "Variables", "contentType": "video/webm", "duration": 420, "position": 2},
            {"id": "l1", "title": "Intro", "videoUrl": "https://cdn.example.com/intro.mp4", "duration": 600, "position": 1},
            {"id": "bad", "title": "", "duration": 10, "position": 3}
          ]
        },
        {
          "id": "m2",
          "title": "Concurrency",
          "lessons": [
            {"id": "l3", "title": "Goroutines", "videoUrl": "https://cdn.example.com/goroutines.mp4", "duration": -5, "position": 1},
            {"id": "l4", "title": "Channels", "duration": 0, "position": 2}
          ]
        }
      ]
    }
  }
}`

const lessonResponse = `{
  "data": {
    "lesson": {
      "id": "l2",
      "title": "Variables",
      "content": "GkXfo59ChoEB",
      "contentType": "video/webm",
      "duration": 420,
      "position": 2,
      "module": {"id": "m1", "title": "Basics"}
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// newTestServer answers course and lesson queries with canned bodies and records the requests it saw
func newTestServer(t *testing.T, course, lesson string) (*httptest.Server, *[]graphQLRequest, *[]string) {
	t.Helper()
	var requests []graphQLRequest
	var authHeaders []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(req.Query, "course("):
			_, _ = w.Write([]byte(course))
		case strings.Contains(req.Query, "lesson("):
			_, _ = w.Write([]byte(lesson))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requests, &authHeaders
}

func newTestRepository(t *testing.T, url, token string) *LessonRepository {
	t.Helper()
	client, err := NewClient(url, token, time.Second)
	require.NoError(t, err)
	return NewLessonRepository(client).(*LessonRepository)
}

func TestGetCourse(t *testing.T) {
	srv, requests, auth := newTestServer(t, courseResponse, lessonResponse)
	repo := newTestRepository(t, srv.URL, "secret")

	course, err := repo.GetCourse(context.Background(), "go-101")
	require.NoError(t, err)

	assert.Equal(t, "go-101", course.ID)
	assert.Equal(t, "Go 101", course.Title)

	ids := make([]string, 0, len(course.Lessons))
	for _, l := range course.Lessons {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"l1", "l2", "l4"}, ids, "lessons are ordered by position and invalid ones skipped")

	assert.Equal(t, "Basics", course.Lessons[0].ModuleTitle)
	assert.Equal(t, "m2", course.Lessons[2].ModuleID)
	assert.Equal(t, "video/webm", course.Lessons[1].ContentType)

	require.Len(t, *requests, 1)
	assert.Equal(t, "go-101", (*requests)[0].Variables["id"])
	assert.Equal(t, "Bearer secret", (*auth)[0])
}

func TestGetCourseWithoutToken(t *testing.T) {
	srv, _, auth := newTestServer(t, courseResponse, lessonResponse)
	repo := newTestRepository(t, srv.URL, "")

	_, err := repo.GetCourse(context.Background(), "go-101")
	require.NoError(t, err)
	assert.Empty(t, (*auth)[0])
}

func TestGetCourseNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, `{"data": {"course": null}}`, lessonResponse)
	repo := newTestRepository(t, srv.URL, "")

	_, err := repo.GetCourse(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetCourseGraphQLError(t *testing.T) {
	srv, _, _ := newTestServer(t, `{"errors": [{"message": "not authorised"}], "data": null}`, lessonResponse)
	repo := newTestRepository(t, srv.URL, "")

	_, err := repo.GetCourse(context.Background(), "go-101")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorised")

	var netErr NetworkError
	assert.False(t, errors.As(err, &netErr))
}

func TestGetLesson(t *testing.T) {
	srv, requests, _ := newTestServer(t, courseResponse, lessonResponse)
	repo := newTestRepository(t, srv.URL, "")

	lesson, err := repo.GetLesson(context.Background(), "l2")
	require.NoError(t, err)

	assert.Equal(t, "Variables", lesson.Title)
	assert.Equal(t, "GkXfo59ChoEB", lesson.Content)
	assert.True(t, lesson.HasInlineContent())
	assert.Equal(t, "m1", lesson.ModuleID)
	assert.Equal(t, "Basics", lesson.ModuleTitle)
	assert.Contains(t, (*requests)[0].Query, "content")
}

func TestGetLessonInvalidRecord(t *testing.T) {
	srv, _, _ := newTestServer(t, courseResponse, `{"data": {"lesson": {"id": "x", "title": "Broken", "videoUrl": "not a uri", "duration": 1}}}`)
	repo := newTestRepository(t, srv.URL, "")

	_, err := repo.GetLesson(context.Background(), "x")
	assert.ErrorContains(t, err, "invalid")
}

func TestGetLessonNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t, courseResponse, `{"data": {"lesson": null}}`)
	repo := newTestRepository(t, srv.URL, "")

	_, err := repo.GetLesson(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	repo := newTestRepository(t, url, "")
	_, err := repo.GetCourse(context.Background(), "go-101")

	var netErr NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient("", "token", time.Second)
	assert.Error(t, err)
}
