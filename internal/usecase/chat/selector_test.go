package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSelectBestPicksRankedCandidate(t *testing.T) {
	selector := NewResponseSelector(&stubRanker{indices: []int{1}}, zap.NewNop())

	best, _ := selector.SelectBest(context.Background(),
		[]string{"first", "second"}, "question", nil)

	require.Equal(t, "second", best)
}

func TestSelectBestRankerErrorFallsBackToFirst(t *testing.T) {
	selector := NewResponseSelector(&stubRanker{err: errors.New("boom")}, zap.NewNop())

	best, _ := selector.SelectBest(context.Background(),
		[]string{"first", "second"}, "question", nil)

	require.Equal(t, "first", best)
}

func TestSelectBestEmptySelectionFallsBackToFirst(t *testing.T) {
	selector := NewResponseSelector(&stubRanker{}, zap.NewNop())

	best, _ := selector.SelectBest(context.Background(),
		[]string{"first", "second"}, "question", nil)

	require.Equal(t, "first", best)
}

func TestSelectBestSingleCandidateSkipsRanking(t *testing.T) {
	ranker := &stubRanker{indices: []int{0}}
	selector := NewResponseSelector(ranker, zap.NewNop())

	best, _ := selector.SelectBest(context.Background(), []string{"only"}, "question", nil)

	require.Equal(t, "only", best)
	require.Zero(t, ranker.calls)
}

func TestSelectBestNoCandidates(t *testing.T) {
	selector := NewResponseSelector(&stubRanker{}, zap.NewNop())

	best, usage := selector.SelectBest(context.Background(), nil, "question", nil)

	require.Empty(t, best)
	require.Nil(t, usage)
}
