package pipelineapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/studiumlab/tutor-backend/internal/integration/callback"
	"github.com/studiumlab/tutor-backend/internal/usecase/chat"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPipeline struct {
	exerciseRuns chan entity.ExerciseChatPipelineExecutionDTO
	lectureRuns  chan entity.LectureChatPipelineExecutionDTO
}

func newStubPipeline() *stubPipeline {
	return &stubPipeline{
		exerciseRuns: make(chan entity.ExerciseChatPipelineExecutionDTO, 1),
		lectureRuns:  make(chan entity.LectureChatPipelineExecutionDTO, 1),
	}
}

func (s *stubPipeline) RunExerciseChat(_ context.Context, dto entity.ExerciseChatPipelineExecutionDTO, _ chat.StatusReporter) error {
	s.exerciseRuns <- dto
	return nil
}

func (s *stubPipeline) RunLectureChat(_ context.Context, dto entity.LectureChatPipelineExecutionDTO, _ chat.StatusReporter) error {
	s.lectureRuns <- dto
	return nil
}

func newTestRouter(pipeline TutorPipeline, apiKey string) http.Handler {
	callbacks := callback.NewConnector(config.CallbackConnectorConfig{
		StatusPathTemplate: "/runs/%s/status",
	}, zap.NewNop())
	h := NewHandler(pipeline, callbacks, zap.NewNop())

	r := chi.NewRouter()
	RegisterRoutes(r, h, apiKey)
	return r
}

func validLectureBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(entity.LectureChatPipelineExecutionDTO{
		Settings: entity.PipelineSettings{
			AuthenticationToken: "run-token",
			PlatformBaseURL:     "http://platform.invalid",
		},
		Course: entity.CourseDTO{ID: 1, Name: "Algorithms"},
		ChatHistory: []entity.ChatMessage{
			entity.NewTextMessage(entity.MessageRoleUser, "What is a heap?"),
		},
	})
	require.NoError(t, err)
	return body
}

func TestRunTutorChatAcceptsAndStartsBackgroundRun(t *testing.T) {
	pipeline := newStubPipeline()
	router := newTestRouter(pipeline, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipelines/tutor-chat/lecture/run", bytes.NewReader(validLectureBody(t)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted RunAcceptedResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&accepted))
	require.NotEmpty(t, accepted.RunID)

	select {
	case dto := <-pipeline.lectureRuns:
		require.Equal(t, int64(1), dto.Course.ID)
	case <-time.After(time.Second):
		t.Fatal("background run did not start")
	}
}

func TestRunTutorChatRejectsInvalidBody(t *testing.T) {
	router := newTestRouter(newStubPipeline(), "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipelines/tutor-chat/exercise/run", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunTutorChatRejectsMissingSettings(t *testing.T) {
	router := newTestRouter(newStubPipeline(), "")

	body, err := json.Marshal(entity.LectureChatPipelineExecutionDTO{
		ChatHistory: []entity.ChatMessage{
			entity.NewTextMessage(entity.MessageRoleUser, "hi"),
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipelines/tutor-chat/lecture/run", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunTutorChatUnknownVariant(t *testing.T) {
	router := newTestRouter(newStubPipeline(), "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipelines/tutor-chat/voice/run", bytes.NewReader(validLectureBody(t)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPipelineFeatureNotImplemented(t *testing.T) {
	router := newTestRouter(newStubPipeline(), "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pipelines/competency-extraction", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestPipelineRoutesRequireAPIKey(t *testing.T) {
	router := newTestRouter(newStubPipeline(), "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pipelines/tutor-chat/lecture/run", bytes.NewReader(validLectureBody(t)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/pipelines/tutor-chat/lecture/run", bytes.NewReader(validLectureBody(t)))
	req.Header.Set("Authorization", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
}
