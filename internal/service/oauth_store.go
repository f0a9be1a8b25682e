package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	oauthFlowPending  = "pending"
	oauthFlowComplete = "complete"
)

// OAuthFlow es el estado de un login federado entre el start, el callback y el hand-off.
type OAuthFlow struct {
	State    string     `json:"state"`
	Provider string     `json:"provider"`
	Status   string     `json:"status"`
	UserID   string     `json:"user_id,omitempty"`
	Tokens   *TokenPair `json:"tokens,omitempty"`
}

// OAuthFlowStore guarda flujos OAuth con expiracion.
type OAuthFlowStore interface {
	Put(ctx context.Context, flow OAuthFlow, ttl time.Duration) error
	Get(ctx context.Context, state string) (OAuthFlow, bool, error)
	Take(ctx context.Context, state string) (OAuthFlow, bool, error)
}

type memoryFlowEntry struct {
	flow      OAuthFlow
	expiresAt time.Time
}

type memoryOAuthFlowStore struct {
	mu    sync.Mutex
	items map[string]memoryFlowEntry
	now   func() time.Time
}

func NewMemoryOAuthFlowStore() OAuthFlowStore {
	return &memoryOAuthFlowStore{
		items: make(map[string]memoryFlowEntry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryOAuthFlowStore) Put(_ context.Context, flow OAuthFlow, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(flow.State) == "" {
		return errors.New("oauth flow without state")
	}
	s.items[flow.State] = memoryFlowEntry{flow: flow, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryOAuthFlowStore) Get(_ context.Context, state string) (OAuthFlow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.lookup(state)
	return entry.flow, ok, nil
}

func (s *memoryOAuthFlowStore) Take(_ context.Context, state string) (OAuthFlow, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.lookup(state)
	delete(s.items, state)
	return entry.flow, ok, nil
}

// lookup requiere s.mu tomado.
func (s *memoryOAuthFlowStore) lookup(state string) (memoryFlowEntry, bool) {
	entry, ok := s.items[state]
	if !ok {
		return memoryFlowEntry{}, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.items, state)
		return memoryFlowEntry{}, false
	}
	return entry, true
}

type redisOAuthFlowStore struct {
	client redisKVClient
	prefix string
}

func NewRedisOAuthFlowStore(client *redis.Client) OAuthFlowStore {
	if client == nil {
		return nil
	}
	return &redisOAuthFlowStore{
		client: client,
		prefix: "majji:oauth:",
	}
}

func (s *redisOAuthFlowStore) Put(ctx context.Context, flow OAuthFlow, ttl time.Duration) error {
	if strings.TrimSpace(flow.State) == "" {
		return errors.New("oauth flow without state")
	}
	payload, err := json.Marshal(flow)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+flow.State, payload, ttl).Err()
}

func (s *redisOAuthFlowStore) Get(ctx context.Context, state string) (OAuthFlow, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return decodeFlow(s.client.Get(ctx, s.prefix+state).Bytes())
}

func (s *redisOAuthFlowStore) Take(ctx context.Context, state string) (OAuthFlow, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return decodeFlow(s.client.GetDel(ctx, s.prefix+state).Bytes())
}

func decodeFlow(raw []byte, err error) (OAuthFlow, bool, error) {
	if errors.Is(err, redis.Nil) {
		return OAuthFlow{}, false, nil
	}
	if err != nil {
		return OAuthFlow{}, false, err
	}
	var flow OAuthFlow
	if err := json.Unmarshal(raw, &flow); err != nil {
		return OAuthFlow{}, false, err
	}
	return flow, true, nil
}
