package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bwerrors "github.com/mpelletier/boardwalk/internal/errors"
)

func TestProxyGatewaySendsOrderedBatch(t *testing.T) {
	t.Parallel()

	var got proxyBatch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	plan := NewPlan()
	plan.Add("UPDATE tasks SET position = position + 1 WHERE column_id = ?", "c1")
	plan.Add("UPDATE tasks SET position = ? WHERE id = ?", 0, "t1")

	gw := NewProxyGateway(srv.URL, testLogger())
	require.NoError(t, gw.Apply(context.Background(), plan))

	require.Len(t, got.Statements, 2)
	assert.Equal(t, "UPDATE tasks SET position = position + 1 WHERE column_id = ?", got.Statements[0].SQL)
	assert.Equal(t, []any{"c1"}, got.Statements[0].Args)
	// JSON numbers decode as float64; only the order and arity matter here.
	assert.Equal(t, "t1", got.Statements[1].Args[1])
}

func TestProxyGatewayRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok": false, "error": "deadlock detected"}`))
	}))
	defer srv.Close()

	plan := NewPlan()
	plan.Add("UPDATE tasks SET position = 0 WHERE id = ?", "t1")

	gw := NewProxyGateway(srv.URL, testLogger())
	err := gw.Apply(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
}

func TestProxyGatewayRejectsOkFalse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with a failure body still counts as total failure.
		_, _ = w.Write([]byte(`{"ok": false, "error": "constraint violation on statement 3"}`))
	}))
	defer srv.Close()

	plan := NewPlan()
	plan.Add("UPDATE tasks SET position = 0 WHERE id = ?", "t1")

	gw := NewProxyGateway(srv.URL, testLogger())
	err := gw.Apply(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint violation")
}

func TestCoordinatorWrapsProxyFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	coord := NewCoordinator(NewProxyGateway(srv.URL, testLogger()), testLogger())

	plan := NewPlan()
	plan.Add("UPDATE tasks SET position = 0 WHERE id = ?", "t1")

	hookRan := false
	err := coord.Apply(context.Background(), plan, func() { hookRan = true })
	assert.ErrorIs(t, err, bwerrors.ErrStorageFailure(nil))
	assert.False(t, hookRan)
}
