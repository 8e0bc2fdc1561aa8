// Package redis caché compartido entre réplicas para el registro de talonarios.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/internal/application/numeracion"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

// NewClient crea y valida la conexión.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Cache valores JSON bajo prefix con TTL del lado del servidor.
// Errores de Redis o de decodificación se registran y cuentan como miss.
type Cache[V any] struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	log    zerolog.Logger
}

var _ numeracion.Cache[*entity.Talonario] = (*Cache[*entity.Talonario])(nil)

// NewCache construye el caché. ttl <= 0 deshabilita las escrituras.
func NewCache[V any](rdb goredis.UniversalClient, prefix string, ttl time.Duration, log zerolog.Logger) *Cache[V] {
	return &Cache[V]{rdb: rdb, prefix: prefix, ttl: ttl, log: log}
}

func (c *Cache[V]) key(k string) string { return c.prefix + k }

func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn().Err(err).Str("key", c.key(key)).Msg("redis get")
		}
		return zero, false
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		c.log.Warn().Err(err).Str("key", c.key(key)).Msg("valor en caché ilegible")
		return zero, false
	}
	return v, true
}

func (c *Cache[V]) Set(ctx context.Context, key string, value V) {
	if c.ttl <= 0 {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", c.key(key)).Msg("no se pudo serializar para caché")
		return
	}
	if err := c.rdb.Set(ctx, c.key(key), b, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", c.key(key)).Msg("redis set")
	}
}

func (c *Cache[V]) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		c.log.Warn().Err(err).Strs("keys", full).Msg("redis del")
	}
}

// NewCaches los tres cachés del registro sobre un mismo cliente.
func NewCaches(rdb goredis.UniversalClient, appName string, ttl time.Duration, log zerolog.Logger) numeracion.Caches {
	base := appName + ":talonarios:"
	return numeracion.Caches{
		Detail:     NewCache[*entity.Talonario](rdb, base+"detalle:", ttl, log),
		Default:    NewCache[*entity.Talonario](rdb, base+"default:", ttl, log),
		Resguardos: NewCache[[]*entity.Talonario](rdb, base+"resguardos:", ttl, log),
	}
}
