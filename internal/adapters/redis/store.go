package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "stepwise:session:"

// noExpiry is the index score used for sessions without a TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.StateStore using Redis.
// Sessions are JSON strings. A sorted set orders them by expiry and a hash
// keeps their listing view (domain, goal, progress).
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var (
	_ ports.StateStore   = (*Store)(nil)
	_ ports.SessionIndex = (*Store)(nil)
)

type Option func(*Store)

// WithTTL sets the expiration for sessions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewFromURL creates a store from a redis:// or rediss:// URL.
func NewFromURL(url string, opts ...Option) (*Store, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(o), opts...), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client (shared with the Locker).
func (s *Store) Client() *backend.Client {
	return s.client
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) infoKey() string {
	return s.prefix + "info"
}

// Save persists the state and refreshes its index entry in one pipeline.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.ExecutionState) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	info, err := json.Marshal(domain.NewSessionInfo(sessionID, state))
	if err != nil {
		return fmt.Errorf("failed to marshal session info: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
	pipe.HSet(ctx, s.infoKey(), sessionID, info)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the state from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.ExecutionState, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var state domain.ExecutionState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the session and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	pipe.HDel(ctx, s.infoKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List drops sessions whose TTL has passed and returns the rest, soonest
// expiry first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	expired, err := s.client.ZRangeByScore(ctx, s.indexKey(), &backend.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to find expired sessions: %w", err)
	}
	if len(expired) > 0 {
		members := make([]any, len(expired))
		for i, id := range expired {
			members[i] = id
		}
		pipe := s.client.Pipeline()
		pipe.ZRem(ctx, s.indexKey(), members...)
		pipe.HDel(ctx, s.infoKey(), expired...)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
		}
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Index returns the listing view of every live session without loading
// the states.
func (s *Store) Index(ctx context.Context) ([]domain.SessionInfo, error) {
	ids, err := s.List(ctx)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	raw, err := s.client.HMGet(ctx, s.infoKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}

	infos := make([]domain.SessionInfo, 0, len(ids))
	for i, id := range ids {
		info := domain.SessionInfo{ID: id}
		str, ok := raw[i].(string)
		switch {
		case !ok:
			info.Err = errors.New("missing index entry")
		default:
			if err := json.Unmarshal([]byte(str), &info); err != nil {
				info = domain.SessionInfo{ID: id, Err: fmt.Errorf("corrupt index entry: %w", err)}
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
