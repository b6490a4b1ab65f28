package llm

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"go.uber.org/zap"
)

// MockConnector is a stand-in completion/embedding provider for local runs
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Complete(
	ctx context.Context,
	messages []entity.ChatMessage,
	args entity.CompletionArguments,
) (entity.ChatMessage, error) {
	ctxzap.Info(ctx, "[MOCK] chat completion", zap.Int("message_count", len(messages)))

	if args.JSONResponse {
		return entity.NewTextMessage(entity.MessageRoleAssistant, `{"selected_indices": ["0"]}`), nil
	}

	var prompt string
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].FirstText()
	}
	if i := strings.IndexByte(prompt, '\n'); i > 0 {
		prompt = prompt[:i]
	}

	return entity.NewTextMessage(entity.MessageRoleAssistant, "[mock completion] "+prompt), nil
}

func (m *MockConnector) Embed(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Info(ctx, "[MOCK] embedding", zap.Int("text_length", len(text)))

	// Deterministic vector so repeated queries hit the same neighborhood
	vector := make([]float32, 8)
	for i, r := range text {
		vector[i%8] += float32(r) / 1000
	}
	return vector, nil
}
