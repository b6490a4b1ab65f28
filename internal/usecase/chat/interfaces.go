package chat

import (
	"context"

	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/studiumlab/tutor-backend/internal/usecase/retrieval"
)

type ChatCompleter interface {
	Complete(ctx context.Context, messages []entity.ChatMessage, args entity.CompletionArguments) (entity.ChatMessage, error)
}

// PassageRetriever produces relevance-ordered lecture passages for a query
type PassageRetriever interface {
	Retrieve(ctx context.Context, query entity.RetrievalQuery) ([]entity.PassageProperties, []entity.TokenUsage, error)
}

// CandidateRanker orders pre-rendered texts by relevance to a question
type CandidateRanker interface {
	Rerank(ctx context.Context, items []string, question string, history []entity.ChatMessage, policy retrieval.FallbackPolicy) ([]int, *entity.TokenUsage, error)
}

// StatusReporter receives per-stage progress of one pipeline run. Implemented
// by the platform callback; reporting must never fail the run.
type StatusReporter interface {
	InProgress(ctx context.Context, message string)
	Done(ctx context.Context, message string)
	Skip(ctx context.Context, message string)
	Error(ctx context.Context, message string)
	Finished(ctx context.Context, result string)
	AddTokenUsage(usage *entity.TokenUsage)
}
