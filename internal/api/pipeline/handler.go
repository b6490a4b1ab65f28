package pipelineapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/studiumlab/tutor-backend/internal/integration/callback"
	"github.com/studiumlab/tutor-backend/internal/pkg/response"
	"github.com/studiumlab/tutor-backend/internal/usecase/chat"
	"go.uber.org/zap"
)

const (
	variantExercise = "exercise"
	variantLecture  = "lecture"
)

// Handler exposes the pipeline endpoints. Runs are acknowledged with 202 and
// executed on a background goroutine; results travel via status callbacks.
type Handler struct {
	pipeline  TutorPipeline
	callbacks *callback.Connector
	logger    *zap.Logger
}

func NewHandler(pipeline TutorPipeline, callbacks *callback.Connector, logger *zap.Logger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		callbacks: callbacks,
		logger:    logger,
	}
}

// RunAcceptedResponse is the 202 body of an accepted pipeline run
type RunAcceptedResponse struct {
	RunID string `json:"runId"`
}

// RunTutorChat handles POST /api/v1/pipelines/tutor-chat/{variant}/run
func (h *Handler) RunTutorChat(w http.ResponseWriter, r *http.Request) {
	variant := chi.URLParam(r, "variant")
	runID := uuid.NewString()

	switch variant {
	case variantExercise:
		var dto entity.ExerciseChatPipelineExecutionDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validateRun(dto.Settings, len(dto.ChatHistory)); err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		status := h.callbacks.NewStatusCallback(
			dto.Settings.PlatformBaseURL, runID, dto.Settings.AuthenticationToken, chat.ExerciseStageNames)
		h.startRun(r, runID, status, func(ctx context.Context) error {
			return h.pipeline.RunExerciseChat(ctx, dto, status)
		})

	case variantLecture:
		var dto entity.LectureChatPipelineExecutionDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validateRun(dto.Settings, len(dto.ChatHistory)); err != nil {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		status := h.callbacks.NewStatusCallback(
			dto.Settings.PlatformBaseURL, runID, dto.Settings.AuthenticationToken, chat.LectureStageNames)
		h.startRun(r, runID, status, func(ctx context.Context) error {
			return h.pipeline.RunLectureChat(ctx, dto, status)
		})

	default:
		response.Error(w, http.StatusNotFound, fmt.Sprintf("unknown pipeline variant %q", variant))
		return
	}

	response.JSON(w, http.StatusAccepted, RunAcceptedResponse{RunID: runID})
}

// FeatureNotImplemented handles GET /api/v1/pipelines/{feature}
func (h *Handler) FeatureNotImplemented(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	response.Error(w, http.StatusNotImplemented,
		fmt.Sprintf("pipeline feature %q is not implemented", feature))
}

// startRun launches the pipeline on a background goroutine. The context is
// detached from the request so the run survives the 202 response; a panic in
// the pipeline is reported to the platform as a generic error.
func (h *Handler) startRun(r *http.Request, runID string, status chat.StatusReporter, run func(ctx context.Context) error) {
	ctx := context.WithoutCancel(r.Context())
	ctx = ctxzap.ToContext(ctx, h.logger.With(zap.String("run_id", runID)))

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ctxzap.Error(ctx, "pipeline run panicked",
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				status.Error(ctx, "An internal error occurred while running the pipeline.")
			}
		}()

		if err := run(ctx); err != nil {
			ctxzap.Error(ctx, "pipeline run failed", zap.Error(err))
		}
	}()
}

func validateRun(settings entity.PipelineSettings, historyLen int) error {
	if settings.PlatformBaseURL == "" {
		return fmt.Errorf("settings.platformBaseUrl is required")
	}
	if settings.AuthenticationToken == "" {
		return fmt.Errorf("settings.authenticationToken is required")
	}
	if historyLen == 0 {
		return fmt.Errorf("chatHistory must not be empty")
	}
	return nil
}
