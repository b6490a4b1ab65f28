package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/studiumlab/tutor-backend/internal/entity"
)

// dualSearch runs the direct-query search and the hypothetical-answer search
// concurrently. Each branch embeds its own text and issues one hybrid query;
// the result slices keep the store's ranking order.
func (r *LectureRetrieval) dualSearch(
	ctx context.Context,
	rewrittenQuery string,
	hypotheticalAnswer string,
	query entity.RetrievalQuery,
) (direct, hyde []entity.RetrievalChunk, err error) {
	var (
		wg        sync.WaitGroup
		directErr error
		hydeErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		direct, directErr = r.searchOnce(ctx, rewrittenQuery, query)
	}()
	go func() {
		defer wg.Done()
		hyde, hydeErr = r.searchOnce(ctx, hypotheticalAnswer, query)
	}()
	wg.Wait()

	if err := errors.Join(directErr, hydeErr); err != nil {
		return nil, nil, err
	}
	return direct, hyde, nil
}

func (r *LectureRetrieval) searchOnce(
	ctx context.Context,
	text string,
	query entity.RetrievalQuery,
) ([]entity.RetrievalChunk, error) {
	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed search text: %w", err)
	}

	chunks, err := r.searcher.HybridSearch(ctx, entity.HybridSearchRequest{
		QueryText:   text,
		QueryVector: vector,
		Alpha:       r.hybridAlpha(query),
		Limit:       r.resultLimit(query),
		CourseID:    query.CourseID,
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	return chunks, nil
}

func (r *LectureRetrieval) resultLimit(query entity.RetrievalQuery) int {
	if query.ResultLimit > 0 {
		return query.ResultLimit
	}
	return r.config.ResultLimit
}

func (r *LectureRetrieval) hybridAlpha(query entity.RetrievalQuery) float64 {
	if query.HybridAlpha > 0 {
		return query.HybridAlpha
	}
	return r.config.HybridAlpha
}
