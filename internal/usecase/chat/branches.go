package chat

import (
	"context"
	"fmt"

	"github.com/studiumlab/tutor-backend/internal/entity"
)

const maxHistoryMessages = 10

// answerExerciseQuestion produces the exercise-grounded candidate in two
// steps: a direct technical draft, then a rewrite into a guiding tutor
// response that withholds complete solutions.
func (t *TutorChat) answerExerciseQuestion(
	ctx context.Context,
	dto entity.ExerciseChatPipelineExecutionDTO,
	passages []entity.PassageProperties,
) (string, []entity.TokenUsage, error) {
	var usages []entity.TokenUsage

	draftPrompt := fmt.Sprintf(exerciseDraftPromptTemplate,
		dto.Exercise.Name,
		dto.Exercise.ProblemStatement,
		formatBuildContext(dto.Submission),
		formatPassages(passages),
	)

	messages := append(
		[]entity.ChatMessage{entity.NewTextMessage(entity.MessageRoleSystem, draftPrompt)},
		historyTail(dto.ChatHistory)...,
	)

	draft, err := t.completer.Complete(ctx, messages,
		entity.CompletionArguments{Temperature: 0.3, MaxTokens: 2000})
	if err != nil {
		return "", usages, fmt.Errorf("exercise draft: %w", err)
	}
	if draft.TokenUsage != nil {
		usages = append(usages, *draft.TokenUsage)
	}

	guidePrompt := fmt.Sprintf(exerciseGuidePromptTemplate, draft.FirstText())
	guided, err := t.completer.Complete(ctx,
		[]entity.ChatMessage{entity.NewTextMessage(entity.MessageRoleSystem, guidePrompt)},
		entity.CompletionArguments{Temperature: 0.3, MaxTokens: 2000})
	if err != nil {
		return "", usages, fmt.Errorf("exercise guide rewrite: %w", err)
	}
	if guided.TokenUsage != nil {
		usages = append(usages, *guided.TokenUsage)
	}

	return guided.FirstText(), usages, nil
}

// answerLectureQuestion produces the lecture-grounded candidate with a single
// completion over the retrieved passages.
func (t *TutorChat) answerLectureQuestion(
	ctx context.Context,
	courseName string,
	history []entity.ChatMessage,
	passages []entity.PassageProperties,
) (string, []entity.TokenUsage, error) {
	prompt := fmt.Sprintf(lectureAnswerPromptTemplate,
		courseName,
		formatPassages(passages),
	)

	messages := append(
		[]entity.ChatMessage{entity.NewTextMessage(entity.MessageRoleSystem, prompt)},
		historyTail(history)...,
	)

	reply, err := t.completer.Complete(ctx, messages,
		entity.CompletionArguments{Temperature: 0.3, MaxTokens: 2000})
	if err != nil {
		return "", nil, fmt.Errorf("lecture answer: %w", err)
	}

	var usages []entity.TokenUsage
	if reply.TokenUsage != nil {
		usages = append(usages, *reply.TokenUsage)
	}
	return reply.FirstText(), usages, nil
}

func historyTail(history []entity.ChatMessage) []entity.ChatMessage {
	if len(history) > maxHistoryMessages {
		return history[len(history)-maxHistoryMessages:]
	}
	return history
}

// lastUserText finds the student's latest message, the question every
// pipeline run answers.
func lastUserText(history []entity.ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == entity.MessageRoleUser {
			if text := history[i].FirstText(); text != "" {
				return text
			}
		}
	}
	return ""
}
