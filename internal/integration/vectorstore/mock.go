package vectorstore

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"go.uber.org/zap"
)

// MockConnector serves canned lecture chunks for local runs
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) HybridSearch(ctx context.Context, req entity.HybridSearchRequest) ([]entity.RetrievalChunk, error) {
	ctxzap.Info(ctx, "[MOCK] hybrid search",
		zap.String("query", req.QueryText),
		zap.Int("limit", req.Limit),
	)

	limit := req.Limit
	if limit > 3 {
		limit = 3
	}

	chunks := make([]entity.RetrievalChunk, 0, limit)
	for i := 0; i < limit; i++ {
		chunks = append(chunks, entity.RetrievalChunk{
			ID: fmt.Sprintf("mock-chunk-%d", i),
			Properties: entity.PassageProperties{
				PageTextContent:      fmt.Sprintf("Mock lecture passage %d for query %q.", i, req.QueryText),
				PageImageDescription: "Slide with a diagram.",
				CourseName:           "Mock Course",
				LectureName:          "Mock Lecture",
				PageNumber:           i + 1,
			},
		})
	}
	return chunks, nil
}

func (m *MockConnector) CourseLanguage(ctx context.Context, courseID int64) (string, error) {
	ctxzap.Info(ctx, "[MOCK] course language lookup", zap.Int64("course_id", courseID))
	return "English", nil
}
