package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/studiumlab/tutor-backend/internal/entity"
)

const maxTranscriptMessages = 10

// rewriteStudentQuery resolves references to earlier messages and translates
// the query into the course language. Runs even on an empty history so the
// translation step always happens.
func (r *LectureRetrieval) rewriteStudentQuery(
	ctx context.Context,
	query entity.RetrievalQuery,
	language string,
) (string, *entity.TokenUsage, error) {
	transcript, count := r.formatTranscript(query.ChatHistory)

	prompt := fmt.Sprintf(rewriteQueryPromptTemplate,
		count,
		transcript,
		query.StudentQuery,
		language,
		language,
	)

	reply, err := r.completer.Complete(ctx,
		[]entity.ChatMessage{entity.NewTextMessage(entity.MessageRoleSystem, prompt)},
		entity.CompletionArguments{Temperature: 0.2, MaxTokens: 1000},
	)
	if err != nil {
		return "", nil, fmt.Errorf("rewrite student query: %w", err)
	}

	rewritten := strings.TrimSpace(reply.FirstText())
	if rewritten == "" {
		rewritten = query.StudentQuery
	}

	return rewritten, reply.TokenUsage, nil
}

// hypotheticalAnswer produces a lecture-styled answer to the rewritten query.
// Embedding this text instead of the question pulls the search towards
// passages phrased like answers.
func (r *LectureRetrieval) hypotheticalAnswer(
	ctx context.Context,
	rewrittenQuery string,
	courseName string,
	language string,
) (string, *entity.TokenUsage, error) {
	prompt := fmt.Sprintf(hypotheticalAnswerPromptTemplate,
		courseName,
		rewrittenQuery,
		language,
	)

	reply, err := r.completer.Complete(ctx,
		[]entity.ChatMessage{entity.NewTextMessage(entity.MessageRoleSystem, prompt)},
		entity.CompletionArguments{Temperature: 0.2, MaxTokens: 1000},
	)
	if err != nil {
		return "", nil, fmt.Errorf("hypothetical answer: %w", err)
	}

	answer := strings.TrimSpace(reply.FirstText())
	if answer == "" {
		answer = rewrittenQuery
	}

	return answer, reply.TokenUsage, nil
}

// formatTranscript renders the tail of the chat history as a numbered
// chronological transcript, bounded by message count and by token budget.
func (r *LectureRetrieval) formatTranscript(history []entity.ChatMessage) (string, int) {
	texts := make([]string, 0, len(history))
	for _, msg := range history {
		if text := msg.FirstText(); text != "" {
			texts = append(texts, fmt.Sprintf("%s: %s", msg.Sender, text))
		}
	}

	if len(texts) > maxTranscriptMessages {
		texts = texts[len(texts)-maxTranscriptMessages:]
	}
	texts = r.trimmer.TailWithinBudget(texts, r.config.HistoryTokenBudget)

	var b strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&b, "\t%d. %s\n", i+1, text)
	}

	return b.String(), len(texts)
}
