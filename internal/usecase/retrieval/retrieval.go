package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"go.uber.org/zap"
)

// LectureRetrieval pulls the lecture passages most relevant to a student
// query. One invocation rewrites the query, expands it into a hypothetical
// answer, runs both through hybrid search, merges the candidates and reranks
// them against the original question.
type LectureRetrieval struct {
	completer ChatCompleter
	embedder  Embedder
	searcher  LectureSearcher
	reranker  *Reranker
	trimmer   HistoryTrimmer
	config    config.RetrievalConfig
	logger    *zap.Logger
}

func NewLectureRetrieval(
	completer ChatCompleter,
	embedder Embedder,
	searcher LectureSearcher,
	trimmer HistoryTrimmer,
	cfg config.RetrievalConfig,
	logger *zap.Logger,
) *LectureRetrieval {
	return &LectureRetrieval{
		completer: completer,
		embedder:  embedder,
		searcher:  searcher,
		reranker:  NewReranker(completer, logger),
		trimmer:   trimmer,
		config:    cfg,
		logger:    logger,
	}
}

// Retrieve runs the full retrieval pipeline and returns selected passages in
// relevance order, plus the token usage of every model call made on the way.
func (r *LectureRetrieval) Retrieve(
	ctx context.Context,
	query entity.RetrievalQuery,
) ([]entity.PassageProperties, []entity.TokenUsage, error) {
	var usages []entity.TokenUsage
	record := func(u *entity.TokenUsage) {
		if u != nil {
			usages = append(usages, *u)
		}
	}

	language, err := r.searcher.CourseLanguage(ctx, query.CourseID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve course language: %w", err)
	}

	rewritten, usage, err := r.rewriteStudentQuery(ctx, query, language)
	if err != nil {
		return nil, usages, err
	}
	record(usage)

	hypothetical, usage, err := r.hypotheticalAnswer(ctx, rewritten, query.CourseName, language)
	if err != nil {
		return nil, usages, err
	}
	record(usage)

	direct, hyde, err := r.dualSearch(ctx, rewritten, hypothetical, query)
	if err != nil {
		return nil, usages, err
	}

	merged := mergeRetrievedChunks(direct, hyde)
	if len(merged) == 0 {
		ctxzap.Info(ctx, "retrieval found no candidate passages",
			zap.Int64("course_id", query.CourseID),
		)
		return nil, usages, nil
	}

	items := make([]string, 0, len(merged))
	for _, passage := range merged {
		items = append(items, renderPassage(passage))
	}

	// Reranking judges relevance to what the student actually asked, not to
	// the rewritten form the search ran on.
	indices, usage, err := r.reranker.Rerank(ctx, items, query.StudentQuery, query.ChatHistory, FallbackOriginalOrder)
	if err != nil {
		return nil, usages, err
	}
	record(usage)

	selected := make([]entity.PassageProperties, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, merged[i])
	}

	ctxzap.Info(ctx, "lecture retrieval finished",
		zap.Int("candidate_count", len(merged)),
		zap.Int("selected_count", len(selected)),
	)

	return selected, usages, nil
}

// renderPassage flattens one passage into the text shown to the reranker and
// later embedded into generation prompts.
func renderPassage(p entity.PassageProperties) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, page %d", p.LectureName, p.PageNumber)
	if text := strings.TrimSpace(p.PageTextContent); text != "" {
		fmt.Fprintf(&b, ": %s", text)
	}
	if desc := strings.TrimSpace(p.PageImageDescription); desc != "" {
		fmt.Fprintf(&b, " [slide image: %s]", desc)
	}
	return b.String()
}
