package pipelineapi

import (
	"context"

	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/studiumlab/tutor-backend/internal/usecase/chat"
)

// TutorPipeline runs one pipeline variant to completion, reporting progress
// through the status callback.
type TutorPipeline interface {
	RunExerciseChat(ctx context.Context, dto entity.ExerciseChatPipelineExecutionDTO, status chat.StatusReporter) error
	RunLectureChat(ctx context.Context, dto entity.LectureChatPipelineExecutionDTO, status chat.StatusReporter) error
}
