package cachesvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/trezcool/campus/core"
)

var breakerState = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "campus_cache_circuit_breaker_state",
	Help: "Redis circuit breaker state (0=closed, 1=half-open, 2=open)",
})

// RedisCache is a core.Cache backed by Redis.
// While its circuit breaker is open, reads miss and writes are skipped.
type RedisCache struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
	cb     circuitbreaker.CircuitBreaker[any]
	logger core.Logger
}

var _ core.Cache = (*RedisCache)(nil) // interface compliance check

// NewRedisCache connects to conf.Redis.URL. reg may be nil.
func NewRedisCache(conf *core.Config, logger core.Logger, reg prometheus.Registerer) (*RedisCache, error) {
	opts, err := goredis.ParseURL(conf.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	return newRedisCache(goredis.NewClient(opts), conf, logger, reg), nil
}

func newRedisCache(rdb *goredis.Client, conf *core.Config, logger core.Logger, reg prometheus.Registerer) *RedisCache {
	if reg != nil {
		if err := reg.Register(breakerState); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				logger.Warn("registering cache metrics", err)
			}
		}
	}

	c := &RedisCache{
		rdb:    rdb,
		ttl:    conf.Redis.TTL,
		prefix: conf.AppName + ":",
		logger: logger,
	}
	c.cb = newBreaker(logger)
	return c
}

func newBreaker(logger core.Logger) circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.Builder[any]().
		WithFailureRateThreshold(60, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			logger.Warn("cache circuit breaker state changed", map[string]interface{}{
				"from": e.OldState.String(),
				"to":   e.NewState.String(),
			})
			breakerState.Set(stateValue(e.NewState))
		}).
		Build()
}

func stateValue(s circuitbreaker.State) float64 {
	switch s {
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return 0
	}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.cb.TryAcquirePermit() {
		return false, nil
	}
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.cb.RecordSuccess()
			return false, nil
		}
		c.cb.RecordError(err)
		return false, errors.Wrapf(err, "getting %q", key)
	}
	c.cb.RecordSuccess()

	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.Wrapf(err, "decoding %q", key)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	if !c.cb.TryAcquirePermit() {
		return nil
	}
	if err := c.rdb.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		c.cb.RecordError(err)
		return errors.Wrapf(err, "setting %q", key)
	}
	c.cb.RecordSuccess()
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 || !c.cb.TryAcquirePermit() {
		return nil
	}
	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, c.prefix+k)
	}
	if err := c.rdb.Del(ctx, prefixed...).Err(); err != nil {
		c.cb.RecordError(err)
		return errors.Wrap(err, "deleting keys")
	}
	c.cb.RecordSuccess()
	return nil
}

// PingContext implements core.Pinger.
func (c *RedisCache) PingContext(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
