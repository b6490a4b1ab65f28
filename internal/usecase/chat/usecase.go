package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/studiumlab/tutor-backend/internal/entity"
	pkglogger "github.com/studiumlab/tutor-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// Stage names reported to the platform for each pipeline variant
var (
	ExerciseStageNames = []string{
		"Reading the exercise context",
		"Looking up lecture content",
		"Generating a response",
		"Choosing the best response",
	}
	LectureStageNames = []string{
		"Reading the course context",
		"Looking up lecture content",
		"Generating a response",
	}
)

// TutorChat runs the tutoring pipeline: lecture retrieval, candidate answer
// generation and response selection, with progress reported out of band.
type TutorChat struct {
	retriever PassageRetriever
	completer ChatCompleter
	selector  *ResponseSelector
	logger    *zap.Logger
}

func NewTutorChat(
	retriever PassageRetriever,
	completer ChatCompleter,
	ranker CandidateRanker,
	logger *zap.Logger,
) *TutorChat {
	return &TutorChat{
		retriever: retriever,
		completer: completer,
		selector:  NewResponseSelector(ranker, logger),
		logger:    logger,
	}
}

// RunExerciseChat answers the student's latest question in an exercise
// conversation. Two candidates are produced concurrently, one grounded in the
// exercise context and one in the lecture material, and the better one is
// reported as the result. A single failed candidate is tolerated; the run
// fails only when both branches fail.
func (t *TutorChat) RunExerciseChat(
	ctx context.Context,
	dto entity.ExerciseChatPipelineExecutionDTO,
	status StatusReporter,
) error {
	ctx = pkglogger.WithAction(ctx, "exercise-chat")

	status.InProgress(ctx, "Reading the exercise context")
	question := lastUserText(dto.ChatHistory)
	if question == "" {
		status.Error(ctx, "The conversation contains no student question.")
		return fmt.Errorf("exercise chat: %w", entity.ErrMissingField)
	}
	status.Done(ctx, "")

	passages := t.retrievePassages(ctx, entity.RetrievalQuery{
		ChatHistory:      dto.ChatHistory,
		StudentQuery:     question,
		CourseName:       dto.Course.Name,
		CourseID:         dto.Course.ID,
		ProblemStatement: dto.Exercise.ProblemStatement,
		ExerciseTitle:    dto.Exercise.Name,
	}, status)

	status.InProgress(ctx, "Generating a response")

	var (
		wg         sync.WaitGroup
		candidates [2]string
		branchErrs [2]error
		usages     [2][]entity.TokenUsage
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		candidates[0], usages[0], branchErrs[0] = t.answerExerciseQuestion(ctx, dto, passages)
	}()
	go func() {
		defer wg.Done()
		candidates[1], usages[1], branchErrs[1] = t.answerLectureQuestion(ctx, dto.Course.Name, dto.ChatHistory, passages)
	}()
	wg.Wait()

	for i := range usages {
		for j := range usages[i] {
			status.AddTokenUsage(&usages[i][j])
		}
	}

	survivors := make([]string, 0, 2)
	for i, err := range branchErrs {
		if err != nil {
			ctxzap.Warn(ctx, "pipeline branch failed",
				zap.Int("branch", i),
				zap.Error(err),
			)
			continue
		}
		survivors = append(survivors, candidates[i])
	}
	if len(survivors) == 0 {
		status.Error(ctx, "The tutor could not generate a response.")
		return fmt.Errorf("exercise chat: %w", errors.Join(entity.ErrNoCandidates, branchErrs[0], branchErrs[1]))
	}
	status.Done(ctx, "")

	result, usage := t.selector.SelectBest(ctx, survivors, question, dto.ChatHistory)
	status.AddTokenUsage(usage)

	status.Finished(ctx, result)
	return nil
}

// RunLectureChat answers the student's latest question in a course
// conversation with a single lecture-grounded candidate.
func (t *TutorChat) RunLectureChat(
	ctx context.Context,
	dto entity.LectureChatPipelineExecutionDTO,
	status StatusReporter,
) error {
	ctx = pkglogger.WithAction(ctx, "lecture-chat")

	status.InProgress(ctx, "Reading the course context")
	question := lastUserText(dto.ChatHistory)
	if question == "" {
		status.Error(ctx, "The conversation contains no student question.")
		return fmt.Errorf("lecture chat: %w", entity.ErrMissingField)
	}
	status.Done(ctx, "")

	passages := t.retrievePassages(ctx, entity.RetrievalQuery{
		ChatHistory:  dto.ChatHistory,
		StudentQuery: question,
		CourseName:   dto.Course.Name,
		CourseID:     dto.Course.ID,
	}, status)

	status.InProgress(ctx, "Generating a response")
	result, usages, err := t.answerLectureQuestion(ctx, dto.Course.Name, dto.ChatHistory, passages)
	for i := range usages {
		status.AddTokenUsage(&usages[i])
	}
	if err != nil {
		status.Error(ctx, "The tutor could not generate a response.")
		return fmt.Errorf("lecture chat: %w", err)
	}

	status.Finished(ctx, result)
	return nil
}

// retrievePassages runs lecture retrieval for one pipeline stage. Retrieval
// failures skip the stage instead of failing the run: the tutor still answers
// from the conversation alone.
func (t *TutorChat) retrievePassages(
	ctx context.Context,
	query entity.RetrievalQuery,
	status StatusReporter,
) []entity.PassageProperties {
	status.InProgress(ctx, "Looking up lecture content")

	passages, usages, err := t.retriever.Retrieve(ctx, query)
	for i := range usages {
		status.AddTokenUsage(&usages[i])
	}
	if err != nil {
		ctxzap.Warn(ctx, "lecture retrieval unavailable, continuing without passages",
			zap.Int64("course_id", query.CourseID),
			zap.Error(err),
		)
		status.Skip(ctx, "Lecture content is unavailable.")
		return nil
	}

	status.Done(ctx, "")
	return passages
}
