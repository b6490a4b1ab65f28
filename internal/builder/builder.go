package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/studiumlab/tutor-backend/internal/api"
	pipelineapi "github.com/studiumlab/tutor-backend/internal/api/pipeline"
	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/integration/callback"
	"github.com/studiumlab/tutor-backend/internal/integration/llm"
	"github.com/studiumlab/tutor-backend/internal/integration/vectorstore"
	"github.com/studiumlab/tutor-backend/internal/pkg/prompttoken"
	"github.com/studiumlab/tutor-backend/internal/usecase/chat"
	"github.com/studiumlab/tutor-backend/internal/usecase/retrieval"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	counter, err := prompttoken.NewCounter()
	if err != nil {
		return nil, fmt.Errorf("setup token counter: %w", err)
	}

	// Initialize connectors
	callbackConnector := callback.NewConnector(cfg.CallbackCfg, logger)

	// Initialize external service connectors (with mock support)
	var llmConnector interface {
		retrieval.ChatCompleter
		retrieval.Embedder
	}
	var searchConnector retrieval.LectureSearcher

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		llmConnector = llm.NewMockConnector(logger)
		searchConnector = vectorstore.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		llmConnector = llm.NewConnector(cfg.LLMCfg, counter, logger)
		searchConnector = vectorstore.NewConnector(cfg.VectorStoreCfg, logger)
	}

	// Initialize use cases
	lectureRetrieval := retrieval.NewLectureRetrieval(
		llmConnector,
		llmConnector,
		searchConnector,
		counter,
		cfg.RetrievalCfg,
		logger,
	)

	tutorChat := chat.NewTutorChat(
		lectureRetrieval,
		llmConnector,
		retrieval.NewReranker(llmConnector, logger),
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	pipelineHandler := pipelineapi.NewHandler(tutorChat, callbackConnector, logger)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(pipelineHandler, cfg.PipelineAPIKey, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		logger: logger,
	}, nil
}
