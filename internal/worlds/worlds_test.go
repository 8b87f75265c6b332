package worlds

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegate/worldctl/internal/gql"
)

func newTestDeps(url string) (*gql.Client, *gql.Retrier) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := gql.NewClient(url, "worlds-admin", http.DefaultClient, logger)
	retrier := gql.NewRetrier(gql.Policy{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Factor:       2,
	}, logger)

	return client, retrier
}

func TestList(t *testing.T) {
	var gotOp string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OperationName string `json:"operationName"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotOp = req.OperationName

		_, _ = w.Write([]byte(`{"data":{"worlds":[
			{"_id":"w1","name":"Aurora","status":"running","players":42,"createdAt":"2024-03-01T12:00:00Z"},
			{"_id":"w2","name":"Borealis","status":"stopped","players":0,"createdAt":"not-a-date"}
		]}}`))
	}))
	defer srv.Close()

	client, retrier := newTestDeps(srv.URL)

	list, err := List(context.Background(), client, retrier, "tok")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "w1", list[0].ID)
	assert.Equal(t, "Aurora", list[0].Name)
	assert.Equal(t, "running", list[0].Status)
	assert.Equal(t, 42, list[0].Players)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), list[0].CreatedAt)

	// Bad timestamp does not hide the row.
	assert.Equal(t, "w2", list[1].ID)
	assert.True(t, list[1].CreatedAt.IsZero())

	assert.Equal(t, "Worlds", gotOp)
}

func TestList_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"worlds":[]}}`))
	}))
	defer srv.Close()

	client, retrier := newTestDeps(srv.URL)

	list, err := List(context.Background(), client, retrier, "tok")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList_TokenInvalidNotRetried(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, retrier := newTestDeps(srv.URL)

	_, err := List(context.Background(), client, retrier, "stale")
	require.Error(t, err)
	assert.True(t, gql.HasKind(err, gql.KindTokenInvalid))
	assert.Equal(t, 1, calls)
}

func TestList_ServerErrorRetried(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte(`{"data":{"worlds":[]}}`))
	}))
	defer srv.Close()

	client, retrier := newTestDeps(srv.URL)

	_, err := List(context.Background(), client, retrier, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
