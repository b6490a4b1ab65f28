package chat

import (
	"context"

	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/studiumlab/tutor-backend/internal/usecase/retrieval"
	"go.uber.org/zap"
)

// ResponseSelector picks the candidate answer that fits the student's
// question best. Selection never fails: any ranking problem degrades to the
// first candidate.
type ResponseSelector struct {
	ranker CandidateRanker
	logger *zap.Logger
}

func NewResponseSelector(ranker CandidateRanker, logger *zap.Logger) *ResponseSelector {
	return &ResponseSelector{
		ranker: ranker,
		logger: logger,
	}
}

func (s *ResponseSelector) SelectBest(
	ctx context.Context,
	candidates []string,
	question string,
	history []entity.ChatMessage,
) (string, *entity.TokenUsage) {
	if len(candidates) == 0 {
		return "", nil
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	indices, usage, err := s.ranker.Rerank(ctx, candidates, question, history, retrieval.FallbackFirst)
	if err != nil || len(indices) == 0 {
		s.logger.Warn("response ranking unavailable, keeping first candidate",
			zap.Int("candidate_count", len(candidates)),
			zap.Error(err),
		)
		return candidates[0], usage
	}

	return candidates[indices[0]], usage
}
