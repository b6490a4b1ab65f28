package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEmbedder struct {
	calls []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls = append(s.calls, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

type stubSearcher struct {
	chunksByQuery map[string][]entity.RetrievalChunk
	requests      []entity.HybridSearchRequest
	language      string
}

func (s *stubSearcher) HybridSearch(_ context.Context, req entity.HybridSearchRequest) ([]entity.RetrievalChunk, error) {
	s.requests = append(s.requests, req)
	return s.chunksByQuery[req.QueryText], nil
}

func (s *stubSearcher) CourseLanguage(_ context.Context, _ int64) (string, error) {
	return s.language, nil
}

type noopTrimmer struct{}

func (noopTrimmer) TailWithinBudget(texts []string, _ int) []string { return texts }

func newTestRetrieval(completer ChatCompleter, embedder Embedder, searcher LectureSearcher) *LectureRetrieval {
	return NewLectureRetrieval(completer, embedder, searcher, noopTrimmer{},
		config.RetrievalConfig{ResultLimit: 5, HybridAlpha: 0.5, HistoryTokenBudget: 2000},
		zap.NewNop(),
	)
}

func TestRetrievePipeline(t *testing.T) {
	completer := &stubCompleter{replies: []string{
		"rewritten question",
		"hypothetical lecture answer",
		`{"selected_indices": ["1"]}`,
	}}
	embedder := &stubEmbedder{}
	searcher := &stubSearcher{
		language: "English",
		chunksByQuery: map[string][]entity.RetrievalChunk{
			"rewritten question":          {chunk("a", "direct passage")},
			"hypothetical lecture answer": {chunk("b", "hyde passage")},
		},
	}

	passages, usages, err := newTestRetrieval(completer, embedder, searcher).Retrieve(
		context.Background(),
		entity.RetrievalQuery{
			StudentQuery: "what is backpropagation?",
			CourseName:   "Deep Learning",
			CourseID:     42,
		},
	)

	require.NoError(t, err)
	require.Len(t, passages, 1)
	require.Equal(t, "hyde passage", passages[0].PageTextContent)

	// both branches embedded and searched with their own text
	require.ElementsMatch(t, []string{"rewritten question", "hypothetical lecture answer"}, embedder.calls)
	require.Len(t, searcher.requests, 2)
	for _, req := range searcher.requests {
		require.Equal(t, int64(42), req.CourseID)
		require.Equal(t, 0.5, req.Alpha)
		require.Equal(t, 5, req.Limit)
	}

	// reranking sees the question as the student asked it
	rerankPrompt := completer.prompts[len(completer.prompts)-1]
	require.Contains(t, rerankPrompt, "what is backpropagation?")
	require.NotContains(t, rerankPrompt, "rewritten question")

	require.Empty(t, usages)
}

func TestRetrieveEmptyHistoryStillRewrites(t *testing.T) {
	completer := &stubCompleter{replies: []string{"rewritten", "hyde", `{"selected_indices": ["0"]}`}}
	searcher := &stubSearcher{
		language: "German",
		chunksByQuery: map[string][]entity.RetrievalChunk{
			"rewritten": {chunk("a", "p1")},
			"hyde":      {chunk("a", "p1")},
		},
	}

	_, _, err := newTestRetrieval(completer, &stubEmbedder{}, searcher).Retrieve(
		context.Background(),
		entity.RetrievalQuery{StudentQuery: "Frage", CourseID: 1},
	)

	require.NoError(t, err)
	require.Len(t, completer.prompts, 3)
	require.Contains(t, completer.prompts[0], "Frage")
	require.Contains(t, completer.prompts[0], "German")
	// the rewriter's output feeds the hypothetical answer unchanged
	require.Contains(t, completer.prompts[1], "rewritten")
}

func TestRetrieveNoCandidatesSkipsRerank(t *testing.T) {
	completer := &stubCompleter{replies: []string{"rewritten", "hyde"}}
	searcher := &stubSearcher{language: "English", chunksByQuery: map[string][]entity.RetrievalChunk{}}

	passages, _, err := newTestRetrieval(completer, &stubEmbedder{}, searcher).Retrieve(
		context.Background(),
		entity.RetrievalQuery{StudentQuery: "anything", CourseID: 1},
	)

	require.NoError(t, err)
	require.Empty(t, passages)
	require.Len(t, completer.prompts, 2)
}

func TestRetrieveTranscriptBoundedToRecentMessages(t *testing.T) {
	history := make([]entity.ChatMessage, 0, 12)
	for i := 0; i < 12; i++ {
		history = append(history, entity.NewTextMessage(entity.MessageRoleUser, "message-"+strings.Repeat("x", i)))
	}

	completer := &stubCompleter{replies: []string{"rewritten", "hyde", `{"selected_indices": ["0"]}`}}
	searcher := &stubSearcher{
		language: "English",
		chunksByQuery: map[string][]entity.RetrievalChunk{
			"rewritten": {chunk("a", "p1")},
		},
	}

	_, _, err := newTestRetrieval(completer, &stubEmbedder{}, searcher).Retrieve(
		context.Background(),
		entity.RetrievalQuery{StudentQuery: "q", ChatHistory: history, CourseID: 1},
	)

	require.NoError(t, err)
	rewritePrompt := completer.prompts[0]
	require.NotContains(t, rewritePrompt, "message-\n")
	require.Contains(t, rewritePrompt, "last 10 student messages")
}
