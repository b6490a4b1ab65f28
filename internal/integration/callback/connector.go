package callback

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/studiumlab/tutor-backend/internal/integration/common"
	pkghttp "github.com/studiumlab/tutor-backend/pkg/http"
	"go.uber.org/zap"
)

// Connector posts pipeline status updates back to the platform
type Connector struct {
	config    config.CallbackConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.CallbackConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		logger:    logger,
	}
}

// StatusCallback tracks the stages of one pipeline run and reports them to
// the run's callback URL. Safe for use from concurrent pipeline branches.
type StatusCallback struct {
	conn      *Connector
	url       string
	authToken string

	mu      sync.Mutex
	stages  []entity.StageDTO
	tokens  []entity.TokenUsage
	current int
}

// NewStatusCallback creates the per-run callback handle. The run ID addresses
// the platform-side run record; authToken authenticates the updates. Stage
// names are reported in order; each stage starts NOT_STARTED.
func (c *Connector) NewStatusCallback(baseURL, runID, authToken string, stageNames []string) *StatusCallback {
	stages := make([]entity.StageDTO, 0, len(stageNames))
	for _, name := range stageNames {
		stages = append(stages, entity.StageDTO{
			Name:   name,
			Weight: 10,
			State:  entity.StageStateNotStarted,
		})
	}

	return &StatusCallback{
		conn:      c,
		url:       baseURL + fmt.Sprintf(c.config.StatusPathTemplate, runID),
		authToken: authToken,
		stages:    stages,
	}
}

// InProgress marks the current stage as running and reports it
func (s *StatusCallback) InProgress(ctx context.Context, message string) {
	s.mu.Lock()
	if s.current < len(s.stages) {
		s.stages[s.current].State = entity.StageStateInProgress
		s.stages[s.current].Message = message
	}
	update := s.snapshot("")
	s.mu.Unlock()

	s.conn.send(ctx, s.url, s.authToken, update)
}

// Done completes the current stage and advances to the next one
func (s *StatusCallback) Done(ctx context.Context, message string) {
	s.advance(ctx, entity.StageStateDone, message)
}

// Skip marks the current stage as skipped and advances to the next one
func (s *StatusCallback) Skip(ctx context.Context, message string) {
	s.advance(ctx, entity.StageStateSkipped, message)
}

// Error marks the current stage as failed, skips the remainder and reports.
// The run is over after this call.
func (s *StatusCallback) Error(ctx context.Context, message string) {
	s.mu.Lock()
	if s.current < len(s.stages) {
		s.stages[s.current].State = entity.StageStateError
		s.stages[s.current].Message = message
	}
	for i := s.current + 1; i < len(s.stages); i++ {
		s.stages[i].State = entity.StageStateSkipped
	}
	s.current = len(s.stages)
	update := s.snapshot("")
	s.mu.Unlock()

	s.conn.send(ctx, s.url, s.authToken, update)
}

// Finished completes all remaining stages and reports the final result
func (s *StatusCallback) Finished(ctx context.Context, result string) {
	s.mu.Lock()
	for i := s.current; i < len(s.stages); i++ {
		s.stages[i].State = entity.StageStateDone
	}
	s.current = len(s.stages)
	update := s.snapshot(result)
	s.mu.Unlock()

	s.conn.send(ctx, s.url, s.authToken, update)
}

// AddTokenUsage records provider token usage to include in status updates
func (s *StatusCallback) AddTokenUsage(usage *entity.TokenUsage) {
	if usage == nil {
		return
	}
	s.mu.Lock()
	s.tokens = append(s.tokens, *usage)
	s.mu.Unlock()
}

func (s *StatusCallback) advance(ctx context.Context, state entity.StageState, message string) {
	s.mu.Lock()
	if s.current < len(s.stages) {
		s.stages[s.current].State = state
		s.stages[s.current].Message = message
		s.current++
	}
	update := s.snapshot("")
	s.mu.Unlock()

	s.conn.send(ctx, s.url, s.authToken, update)
}

// snapshot builds a status update from the current stage list. Caller holds mu.
func (s *StatusCallback) snapshot(result string) *entity.StatusUpdateDTO {
	stages := make([]entity.StageDTO, len(s.stages))
	copy(stages, s.stages)
	tokens := make([]entity.TokenUsage, len(s.tokens))
	copy(tokens, s.tokens)

	return &entity.StatusUpdateDTO{
		Stages: stages,
		Result: result,
		Tokens: tokens,
	}
}

// send posts one status update. Callback delivery failures are logged and
// swallowed: the pipeline never fails because the platform missed an update.
func (c *Connector) send(ctx context.Context, url, authToken string, update *entity.StatusUpdateDTO) {
	opts := []pkghttp.RequestOpt{
		pkghttp.WithURL(url),
		pkghttp.WithHeader("Authorization", "Bearer "+authToken),
	}

	err := c.connector.DoRequest(ctx, http.MethodPost, "", update, nil, opts...)
	if err != nil {
		ctxzap.Error(ctx, "failed to send status callback",
			zap.String("callback_url", url),
			zap.Error(err),
		)
		return
	}

	ctxzap.Debug(ctx, "status callback sent", zap.String("callback_url", url))
}
