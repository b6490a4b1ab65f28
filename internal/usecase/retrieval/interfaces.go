package retrieval

import (
	"context"

	"github.com/studiumlab/tutor-backend/internal/entity"
)

type ChatCompleter interface {
	Complete(ctx context.Context, messages []entity.ChatMessage, args entity.CompletionArguments) (entity.ChatMessage, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type LectureSearcher interface {
	HybridSearch(ctx context.Context, req entity.HybridSearchRequest) ([]entity.RetrievalChunk, error)
	CourseLanguage(ctx context.Context, courseID int64) (string, error)
}

// HistoryTrimmer bounds transcript excerpts by token budget
type HistoryTrimmer interface {
	TailWithinBudget(texts []string, budget int) []string
}
