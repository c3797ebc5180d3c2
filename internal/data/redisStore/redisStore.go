package redisStore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var logger = sync.OnceValue(func() *logger_i.Logger {
	return logger_i.NewLogger("Redis Store")
})

// Options selects one logical redis database. An empty Addr falls back to
// config.RedisAddr and an empty Password to $REDIS_PASSWORD.
type Options struct {
	Addr     string
	DB       int
	Password string
	Timeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = config.RedisAddr
	}
	if o.Password == "" {
		o.Password = os.Getenv("REDIS_PASSWORD")
	}
	if o.Timeout <= 0 {
		o.Timeout = config.RedisCommandTimeout
	}
	return o
}

func (o Options) key() string {
	return fmt.Sprintf("%s/%d", o.Addr, o.DB)
}

type Store struct {
	client *redis.Client
	DB     int
}

// registry holds one Store per addr/db so every cache in the process
// shares a connection pool.
type registry struct {
	mu      sync.Mutex
	stores  map[string]*Store
	watched bool
}

var shared = &registry{stores: make(map[string]*Store)}

// GetRedisStore returns the shared Store for addr/db, connecting and pinging
// on first use. All stores are closed once ctx is cancelled.
func GetRedisStore(ctx context.Context, addr string, db int) (*Store, error) {
	return shared.get(ctx, Options{Addr: addr, DB: db})
}

func (r *registry) get(ctx context.Context, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	key := opts.key()

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[key]; ok {
		return s, nil
	}

	s, err := connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	r.stores[key] = s
	if !r.watched {
		r.watched = true
		go func() {
			<-ctx.Done()
			r.closeAll()
		}()
	}
	return s, nil
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	logger().Info("Closing Redis Stores", "count", len(r.stores))
	for key, s := range r.stores {
		if err := s.client.Close(); err != nil {
			logger().Error("Error closing redis client", "store", key, "error", err)
		}
		delete(r.stores, key)
	}
	r.watched = false
}

func connect(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    opts.DB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           opts.Timeout,
		WriteTimeout:          opts.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.RedisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger().Error("Redis is offline", "addr", opts.Addr, "error", err)
		return nil, fmt.Errorf("redis %s: %w", opts.key(), err)
	}

	logger().Info("Redis client init successfully", "addr", opts.Addr, "db", opts.DB)
	return &Store{client: client, DB: opts.DB}, nil
}

// NewTestStore wraps an existing client, typically one pointed at miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client}
}
