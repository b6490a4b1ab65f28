package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/studiumlab/tutor-backend/internal/integration/common"
	pkghttp "github.com/studiumlab/tutor-backend/pkg/http"
	"go.uber.org/zap"
)

const graphqlEndpoint = "/v1/graphql"

// Connector queries the lecture index over its GraphQL HTTP API
type Connector struct {
	config    config.VectorStoreConnectorConfig
	connector *pkghttp.Connector
	languages *gocache.Cache
	logger    *zap.Logger
}

func NewConnector(
	cfg config.VectorStoreConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		languages: gocache.New(cfg.LanguageCacheTTL, 2*cfg.LanguageCacheTTL),
		logger:    logger,
	}
}

type graphqlRequest struct {
	Query string `json:"query"`
}

type lectureObject struct {
	PageTextContent      string `json:"page_text_content"`
	PageImageDescription string `json:"page_image_description"`
	CourseName           string `json:"course_name"`
	LectureName          string `json:"lecture_name"`
	PageNumber           int    `json:"page_number"`
	CourseID             int64  `json:"course_id"`
	LectureID            int64  `json:"lecture_id"`
	CourseLanguage       string `json:"course_language"`
	Additional           struct {
		ID string `json:"id"`
	} `json:"_additional"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data struct {
		Get map[string][]lectureObject `json:"Get"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// HybridSearch runs one keyword/vector blended query and returns the raw
// candidate chunks in store ranking order.
func (c *Connector) HybridSearch(ctx context.Context, req entity.HybridSearchRequest) ([]entity.RetrievalChunk, error) {
	vector, err := json.Marshal(req.QueryVector)
	if err != nil {
		return nil, fmt.Errorf("marshal query vector: %w", err)
	}

	var filter string
	if req.CourseID != 0 {
		filter = fmt.Sprintf(`, where: {path: ["course_id"], operator: Equal, valueInt: %d}`, req.CourseID)
	}

	query := fmt.Sprintf(`{
		Get {
			%s(
				hybrid: {query: %s, vector: %s, alpha: %.2f}
				limit: %d%s
			) {
				page_text_content
				page_image_description
				course_name
				lecture_name
				page_number
				_additional { id }
			}
		}
	}`, c.config.ClassName, jsonString(req.QueryText), vector, req.Alpha, req.Limit, filter)

	objects, err := c.execute(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	chunks := make([]entity.RetrievalChunk, 0, len(objects))
	for _, obj := range objects {
		chunks = append(chunks, entity.RetrievalChunk{
			ID: obj.Additional.ID,
			Properties: entity.PassageProperties{
				PageTextContent:      obj.PageTextContent,
				PageImageDescription: obj.PageImageDescription,
				CourseName:           obj.CourseName,
				LectureName:          obj.LectureName,
				PageNumber:           obj.PageNumber,
			},
		})
	}

	ctxzap.Debug(ctx, "hybrid search finished",
		zap.Int("chunk_count", len(chunks)),
		zap.Float64("alpha", req.Alpha),
		zap.Int64("course_id", req.CourseID),
	)

	return chunks, nil
}

// CourseLanguage returns the indexed language of a course, fetched from one
// indexed object and cached. An empty index is a hard error: there is no
// language to translate queries into.
func (c *Connector) CourseLanguage(ctx context.Context, courseID int64) (string, error) {
	cacheKey := fmt.Sprintf("course-language:%d", courseID)
	if cached, ok := c.languages.Get(cacheKey); ok {
		return cached.(string), nil
	}

	var filter string
	if courseID != 0 {
		filter = fmt.Sprintf(`where: {path: ["course_id"], operator: Equal, valueInt: %d}, `, courseID)
	}

	query := fmt.Sprintf(`{
		Get {
			%s(%slimit: 1) {
				course_language
			}
		}
	}`, c.config.ClassName, filter)

	objects, err := c.execute(ctx, query)
	if err != nil {
		return "", fmt.Errorf("fetch course language: %w", err)
	}
	if len(objects) == 0 || objects[0].CourseLanguage == "" {
		return "", entity.ErrEmptyIndex
	}

	language := objects[0].CourseLanguage
	c.languages.Set(cacheKey, language, gocache.DefaultExpiration)

	return language, nil
}

func (c *Connector) execute(ctx context.Context, query string) ([]lectureObject, error) {
	var resp graphqlResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, graphqlEndpoint, &graphqlRequest{Query: query}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("graphql query failed: %s", strings.Join(messages, "; "))
	}

	return resp.Data.Get[c.config.ClassName], nil
}

func jsonString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}
