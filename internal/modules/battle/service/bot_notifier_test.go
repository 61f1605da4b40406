package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBotNotifierCallsResultEndpoint(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewBotNotifier(server.URL, "secret-token", nil)
	notifier.NotifyBattleResult(context.Background(), "battle-1")

	require.Equal(t, "/result-battle/battle-1", gotPath)
	require.Equal(t, "Bearer secret-token", gotAuth)
}

func TestBotNotifierToleratesRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	notifier := NewBotNotifier(server.URL, "stale-token", nil)
	// 非 2xx 只记日志，不 panic 不返回错误
	notifier.NotifyBattleResult(context.Background(), "battle-1")
}

func TestBotNotifierSkipsWhenUnconfigured(t *testing.T) {
	notifier := NewBotNotifier("", "", nil)
	notifier.NotifyBattleResult(context.Background(), "battle-1")
}
