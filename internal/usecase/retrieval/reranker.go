package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/studiumlab/tutor-backend/internal/entity"
	"go.uber.org/zap"
)

// FallbackPolicy decides what Rerank returns when the model's selection
// cannot be used.
type FallbackPolicy int

const (
	// FallbackOriginalOrder keeps every item in its incoming order.
	FallbackOriginalOrder FallbackPolicy = iota
	// FallbackFirst keeps only the first item.
	FallbackFirst
)

const rerankExcerptMessages = 4

// Reranker orders arbitrary pre-rendered texts by relevance to a question.
// Transport failures of the underlying model propagate; a malformed or empty
// selection degrades to the fallback policy instead.
type Reranker struct {
	completer ChatCompleter
	logger    *zap.Logger
}

func NewReranker(completer ChatCompleter, logger *zap.Logger) *Reranker {
	return &Reranker{
		completer: completer,
		logger:    logger,
	}
}

type rerankSelection struct {
	SelectedIndices []string `json:"selected_indices"`
}

// Rerank returns indices into items, most relevant first. Indices the model
// invents that do not address any item are dropped silently.
func (r *Reranker) Rerank(
	ctx context.Context,
	items []string,
	question string,
	history []entity.ChatMessage,
	policy FallbackPolicy,
) ([]int, *entity.TokenUsage, error) {
	if len(items) == 0 {
		return nil, nil, nil
	}

	prompt := fmt.Sprintf(rerankPromptTemplate,
		formatExcerpt(history),
		question,
		formatItems(items),
	)

	reply, err := r.completer.Complete(ctx,
		[]entity.ChatMessage{entity.NewTextMessage(entity.MessageRoleSystem, prompt)},
		entity.CompletionArguments{Temperature: 0, MaxTokens: 1000, JSONResponse: true},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("rerank completion: %w", err)
	}

	indices, ok := parseSelection(reply.FirstText(), len(items))
	if !ok {
		r.logger.Warn("unusable rerank selection, applying fallback",
			zap.Int("item_count", len(items)),
			zap.Int("policy", int(policy)),
		)
		return fallbackIndices(policy, len(items)), reply.TokenUsage, nil
	}

	return indices, reply.TokenUsage, nil
}

// parseSelection reports ok=false when the payload cannot yield a non-empty
// selection; individual bad indices are skipped, not fatal.
func parseSelection(payload string, itemCount int) ([]int, bool) {
	var selection rerankSelection
	if err := json.Unmarshal([]byte(payload), &selection); err != nil {
		return nil, false
	}

	indices := make([]int, 0, len(selection.SelectedIndices))
	seen := make(map[int]bool, len(selection.SelectedIndices))
	for _, raw := range selection.SelectedIndices {
		i, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || i < 0 || i >= itemCount || seen[i] {
			continue
		}
		seen[i] = true
		indices = append(indices, i)
	}

	if len(indices) == 0 {
		return nil, false
	}
	return indices, true
}

func fallbackIndices(policy FallbackPolicy, itemCount int) []int {
	if policy == FallbackFirst {
		return []int{0}
	}
	indices := make([]int, itemCount)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func formatItems(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i, item)
	}
	return b.String()
}

func formatExcerpt(history []entity.ChatMessage) string {
	texts := make([]string, 0, rerankExcerptMessages)
	start := len(history) - rerankExcerptMessages
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		if text := msg.FirstText(); text != "" {
			texts = append(texts, fmt.Sprintf("%s: %s", msg.Sender, text))
		}
	}
	if len(texts) == 0 {
		return "(no prior conversation)"
	}
	return strings.Join(texts, "\n")
}
