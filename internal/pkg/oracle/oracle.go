package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrPriceUnavailable is returned when no fresh price can be produced and the
// stale policy forbids serving an old one. Fee resolution must fail on this
// rather than default to a zero fee.
var ErrPriceUnavailable = errors.New("token price unavailable")

// Fetcher produces a fresh USD price for a token symbol.
type Fetcher interface {
	FetchUSDPrice(ctx context.Context, symbol string) (*big.Rat, error)
}

type entry struct {
	mu        sync.Mutex
	price     *big.Rat
	fetchedAt time.Time
}

// Cache is a TTL price cache with per-token single-flight: concurrent misses
// for the same token share one upstream fetch. An optional Redis layer lets
// co-operating processes reuse each other's fetches.
type Cache struct {
	fetcher    Fetcher
	ttl        time.Duration
	serveStale bool
	rdb        *redis.Client // optional shared layer, may be nil

	mu      sync.Mutex
	entries map[string]*entry

	now func() time.Time // test hook
}

// Option configures a Cache.
type Option func(*Cache)

// WithRedis adds the shared Redis cache layer.
func WithRedis(rdb *redis.Client) Option {
	return func(c *Cache) { c.rdb = rdb }
}

// WithServeStale permits serving a stale cached price when a refresh fails.
// Without this option a failed refresh surfaces ErrPriceUnavailable.
func WithServeStale() Option {
	return func(c *Cache) { c.serveStale = true }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a price cache with the given TTL.
func NewCache(fetcher Fetcher, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPrice returns the USD price for a token symbol, from cache when fresh.
func (c *Cache) GetPrice(ctx context.Context, symbol string) (*big.Rat, error) {
	symbol = strings.ToUpper(symbol)

	e := c.entryFor(symbol)

	// The entry lock is the single-flight discipline: the second concurrent
	// miss blocks here and finds the first caller's result on wakeup.
	e.mu.Lock()
	defer e.mu.Unlock()

	now := c.now()
	if e.price != nil && now.Sub(e.fetchedAt) < c.ttl {
		return new(big.Rat).Set(e.price), nil
	}

	if price, ok := c.fromRedis(ctx, symbol); ok {
		e.price = price
		e.fetchedAt = now
		return new(big.Rat).Set(price), nil
	}

	price, err := c.fetcher.FetchUSDPrice(ctx, symbol)
	if err != nil {
		if c.serveStale && e.price != nil {
			log.Printf("oracle: serving stale %s price from %s after fetch failure: %v", symbol, e.fetchedAt.Format(time.RFC3339), err)
			return new(big.Rat).Set(e.price), nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, symbol, err)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s: non-positive price", ErrPriceUnavailable, symbol)
	}

	e.price = price
	e.fetchedAt = now
	c.toRedis(ctx, symbol, price)
	return new(big.Rat).Set(price), nil
}

func (c *Cache) entryFor(symbol string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[symbol]
	if !ok {
		e = &entry{}
		c.entries[symbol] = e
	}
	return e
}

func redisKey(symbol string) string {
	return "oracle:price:usd:" + symbol
}

func (c *Cache) fromRedis(ctx context.Context, symbol string) (*big.Rat, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, redisKey(symbol)).Result()
	if err != nil {
		return nil, false
	}
	price, ok := new(big.Rat).SetString(raw)
	if !ok || price.Sign() <= 0 {
		return nil, false
	}
	return price, true
}

func (c *Cache) toRedis(ctx context.Context, symbol string, price *big.Rat) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKey(symbol), price.RatString(), c.ttl).Err(); err != nil {
		log.Printf("oracle: failed to store %s price in redis: %v", symbol, err)
	}
}
