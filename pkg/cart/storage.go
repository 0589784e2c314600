package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
)

var ErrCartNotFound = errors.New("cart not found")

// CartStorage persists dev backend carts by token.
type CartStorage interface {
	GetCart(ctx context.Context, token string) (*Cart, error)
	SaveCart(ctx context.Context, cart *Cart) error
}

const cartKeyPrefix = "cart:"

type RedisCartStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStorage(client *redis.Client, ttl time.Duration) *RedisCartStorage {
	return &RedisCartStorage{client: client, ttl: ttl}
}

func (s *RedisCartStorage) GetCart(ctx context.Context, token string) (*Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	var cart Cart
	if err := jsoncompat.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

func (s *RedisCartStorage) SaveCart(ctx context.Context, cart *Cart) error {
	data, err := jsoncompat.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+cart.Token, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

type MemoryCartStorage struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryCartStorage() *MemoryCartStorage {
	return &MemoryCartStorage{carts: make(map[string][]byte)}
}

func (s *MemoryCartStorage) GetCart(ctx context.Context, token string) (*Cart, error) {
	s.mu.RLock()
	data, ok := s.carts[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrCartNotFound
	}
	var cart Cart
	if err := jsoncompat.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

func (s *MemoryCartStorage) SaveCart(ctx context.Context, cart *Cart) error {
	data, err := jsoncompat.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	s.mu.Lock()
	s.carts[cart.Token] = data
	s.mu.Unlock()
	return nil
}
