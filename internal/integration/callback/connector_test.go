package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type callbackSink struct {
	mu      sync.Mutex
	paths   []string
	auths   []string
	updates []entity.StatusUpdateDTO
}

func newCallbackSink(t *testing.T) (*callbackSink, *httptest.Server) {
	t.Helper()
	sink := &callbackSink{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var update entity.StatusUpdateDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))

		sink.mu.Lock()
		sink.paths = append(sink.paths, r.URL.Path)
		sink.auths = append(sink.auths, r.Header.Get("Authorization"))
		sink.updates = append(sink.updates, update)
		sink.mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	return sink, srv
}

func newTestCallback(srvURL string, stageNames []string) *StatusCallback {
	conn := NewConnector(config.CallbackConnectorConfig{
		StatusPathTemplate: "/api/public/pipelines/tutor-chat/runs/%s/status",
	}, zap.NewNop())
	return conn.NewStatusCallback(srvURL, "run-1", "secret-token", stageNames)
}

func TestStatusCallbackLifecycle(t *testing.T) {
	sink, srv := newCallbackSink(t)
	defer srv.Close()

	cb := newTestCallback(srv.URL, []string{"first", "second"})
	ctx := context.Background()

	cb.InProgress(ctx, "working")
	cb.Done(ctx, "")
	cb.Finished(ctx, "the answer")

	require.Len(t, sink.updates, 3)
	require.Equal(t, "/api/public/pipelines/tutor-chat/runs/run-1/status", sink.paths[0])
	require.Equal(t, "Bearer secret-token", sink.auths[0])

	require.Equal(t, entity.StageStateInProgress, sink.updates[0].Stages[0].State)
	require.Equal(t, entity.StageStateDone, sink.updates[1].Stages[0].State)
	require.Equal(t, entity.StageStateNotStarted, sink.updates[1].Stages[1].State)

	final := sink.updates[2]
	require.Equal(t, "the answer", final.Result)
	for _, stage := range final.Stages {
		require.Equal(t, entity.StageStateDone, stage.State)
	}
}

func TestStatusCallbackErrorSkipsRemainingStages(t *testing.T) {
	sink, srv := newCallbackSink(t)
	defer srv.Close()

	cb := newTestCallback(srv.URL, []string{"first", "second", "third"})
	ctx := context.Background()

	cb.Done(ctx, "")
	cb.Error(ctx, "something broke")

	final := sink.updates[len(sink.updates)-1]
	require.Equal(t, entity.StageStateDone, final.Stages[0].State)
	require.Equal(t, entity.StageStateError, final.Stages[1].State)
	require.Equal(t, "something broke", final.Stages[1].Message)
	require.Equal(t, entity.StageStateSkipped, final.Stages[2].State)
	require.Empty(t, final.Result)
}

func TestStatusCallbackIncludesTokenUsage(t *testing.T) {
	sink, srv := newCallbackSink(t)
	defer srv.Close()

	cb := newTestCallback(srv.URL, []string{"only"})
	cb.AddTokenUsage(&entity.TokenUsage{Model: "gpt-4o-mini", NumInputTokens: 10, NumOutputTokens: 5})
	cb.AddTokenUsage(nil)
	cb.Finished(context.Background(), "done")

	require.Len(t, sink.updates, 1)
	require.Len(t, sink.updates[0].Tokens, 1)
	require.Equal(t, "gpt-4o-mini", sink.updates[0].Tokens[0].Model)
}

func TestStatusCallbackDeliveryFailureIsSwallowed(t *testing.T) {
	cb := newTestCallback("http://127.0.0.1:1", []string{"only"})

	// unreachable endpoint must not panic or propagate
	cb.Finished(context.Background(), "done")
}
