package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Item is one service booking line in a cart.
type Item struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"` // minor units
}

// Cart is the session's pending booking selection.
type Cart struct {
	SessionID string    `json:"session_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Total returns the cart total in minor units.
func (c *Cart) Total() int64 {
	var total int64
	for _, it := range c.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

// ErrCartNotFound is returned when the session has no cart.
var ErrCartNotFound = errors.New("cart not found")

const defaultTTL = 24 * time.Hour

// Store keeps carts in redis, one JSON value per checkout session.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewStore creates a redis-backed cart store.
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client, ttl: defaultTTL}
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

// Get returns the session's cart.
func (s *Store) Get(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

// Save replaces the session's cart.
func (s *Store) Save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = time.Now()
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(c.SessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// AddItem appends a line to the session's cart, creating it if needed.
func (s *Store) AddItem(ctx context.Context, sessionID string, item Item) (*Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrCartNotFound) {
		c = &Cart{SessionID: sessionID}
	} else if err != nil {
		return nil, err
	}

	for i, existing := range c.Items {
		if existing.ServiceID == item.ServiceID {
			c.Items[i].Quantity += item.Quantity
			if err := s.Save(ctx, c); err != nil {
				return nil, err
			}
			return c, nil
		}
	}

	c.Items = append(c.Items, item)
	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear removes the session's cart. Clearing an absent cart is a no-op.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
