package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryOAuthFlowStore_GetTakeExpire(t *testing.T) {
	store := NewMemoryOAuthFlowStore()
	ctx := context.Background()

	if err := store.Put(ctx, OAuthFlow{State: "s1", Provider: "google", Status: oauthFlowPending}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	flow, ok, err := store.Get(ctx, "s1")
	if err != nil || !ok || flow.Provider != "google" {
		t.Fatalf("expected stored flow, got %+v %v %v", flow, ok, err)
	}
	if _, ok, _ := store.Take(ctx, "s1"); !ok {
		t.Fatalf("expected take to return flow")
	}
	if _, ok, _ := store.Get(ctx, "s1"); ok {
		t.Fatalf("expected flow removed after take")
	}

	if err := store.Put(ctx, OAuthFlow{State: "s2"}, 20*time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok, _ := store.Get(ctx, "s2"); ok {
		t.Fatalf("expected flow expired")
	}

	if err := store.Put(ctx, OAuthFlow{State: " "}, time.Minute); err == nil {
		t.Fatalf("expected error for empty state")
	}
}

func TestRedisOAuthFlowStore_RoundTrip(t *testing.T) {
	mock := &mockRedisKVClient{}
	store := &redisOAuthFlowStore{client: mock, prefix: "majji:oauth:"}
	ctx := context.Background()

	tokens := &TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}
	if err := store.Put(ctx, OAuthFlow{State: "s1", Provider: "google", Status: oauthFlowComplete, UserID: "u1", Tokens: tokens}, 2*time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	if mock.lastSetKey != "majji:oauth:s1" || mock.lastSetTTL != 2*time.Minute {
		t.Fatalf("unexpected set %q ttl %v", mock.lastSetKey, mock.lastSetTTL)
	}

	flow, ok, err := store.Get(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("expected flow, got %v %v", ok, err)
	}
	if flow.UserID != "u1" || flow.Tokens == nil || flow.Tokens.AccessToken != "a" {
		t.Fatalf("unexpected flow %+v", flow)
	}

	if _, ok, err := store.Take(ctx, "s1"); err != nil || !ok {
		t.Fatalf("expected take, got %v %v", ok, err)
	}
	if _, ok, err := store.Get(ctx, "s1"); err != nil || ok {
		t.Fatalf("expected missing flow after take, got %v %v", ok, err)
	}
}

func TestRedisOAuthFlowStore_SetError(t *testing.T) {
	mock := &mockRedisKVClient{setErr: errors.New("redis down")}
	store := &redisOAuthFlowStore{client: mock, prefix: "majji:oauth:"}
	if err := store.Put(context.Background(), OAuthFlow{State: "s1"}, time.Minute); err == nil {
		t.Fatalf("expected set error")
	}
}
