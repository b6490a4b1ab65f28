package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(url string) config.VectorStoreConnectorConfig {
	return config.VectorStoreConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:            url,
			RequestTimeout: 5 * time.Second,
		},
		ClassName:        "LectureSlides",
		LanguageCacheTTL: time.Minute,
	}
}

func graphqlServer(t *testing.T, queries *[]string, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/graphql", r.URL.Path)

		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*queries = append(*queries, req.Query)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestHybridSearch(t *testing.T) {
	var queries []string
	srv := graphqlServer(t, &queries, `{
		"data": {"Get": {"LectureSlides": [
			{
				"page_text_content": "Merge sort splits the input.",
				"page_image_description": "Recursion tree",
				"course_name": "Algorithms",
				"lecture_name": "Divide and Conquer",
				"page_number": 12,
				"_additional": {"id": "chunk-1"}
			}
		]}}
	}`)
	defer srv.Close()

	conn := NewConnector(testConfig(srv.URL), zap.NewNop())
	chunks, err := conn.HybridSearch(context.Background(), entity.HybridSearchRequest{
		QueryText:   "how does merge sort work?",
		QueryVector: []float32{0.1, 0.2},
		Alpha:       0.5,
		Limit:       10,
		CourseID:    42,
	})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "chunk-1", chunks[0].ID)
	require.Equal(t, "Merge sort splits the input.", chunks[0].Properties.PageTextContent)
	require.Equal(t, 12, chunks[0].Properties.PageNumber)

	require.Len(t, queries, 1)
	require.Contains(t, queries[0], `where: {path: ["course_id"], operator: Equal, valueInt: 42}`)
	require.Contains(t, queries[0], "alpha: 0.50")
}

func TestHybridSearchWithoutCourseFilter(t *testing.T) {
	var queries []string
	srv := graphqlServer(t, &queries, `{"data": {"Get": {"LectureSlides": []}}}`)
	defer srv.Close()

	conn := NewConnector(testConfig(srv.URL), zap.NewNop())
	chunks, err := conn.HybridSearch(context.Background(), entity.HybridSearchRequest{
		QueryText:   "anything",
		QueryVector: []float32{0.1},
		Alpha:       0.5,
		Limit:       5,
	})

	require.NoError(t, err)
	require.Empty(t, chunks)
	require.Len(t, queries, 1)
	require.NotContains(t, queries[0], "where:")
}

func TestHybridSearchGraphQLError(t *testing.T) {
	var queries []string
	srv := graphqlServer(t, &queries, `{"errors": [{"message": "class not found"}]}`)
	defer srv.Close()

	conn := NewConnector(testConfig(srv.URL), zap.NewNop())
	_, err := conn.HybridSearch(context.Background(), entity.HybridSearchRequest{
		QueryText: "anything", QueryVector: []float32{0.1}, Alpha: 0.5, Limit: 5,
	})

	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "class not found"))
}

func TestCourseLanguageCached(t *testing.T) {
	var queries []string
	srv := graphqlServer(t, &queries, `{
		"data": {"Get": {"LectureSlides": [{"course_language": "German"}]}}
	}`)
	defer srv.Close()

	conn := NewConnector(testConfig(srv.URL), zap.NewNop())

	for i := 0; i < 3; i++ {
		language, err := conn.CourseLanguage(context.Background(), 7)
		require.NoError(t, err)
		require.Equal(t, "German", language)
	}

	// only the first lookup reaches the store
	require.Len(t, queries, 1)
}

func TestCourseLanguageEmptyIndex(t *testing.T) {
	var queries []string
	srv := graphqlServer(t, &queries, `{"data": {"Get": {"LectureSlides": []}}}`)
	defer srv.Close()

	conn := NewConnector(testConfig(srv.URL), zap.NewNop())
	_, err := conn.CourseLanguage(context.Background(), 7)

	require.ErrorIs(t, err, entity.ErrEmptyIndex)
}
