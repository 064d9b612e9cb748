package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient dials addr and checks it answers PING.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisRelay shares one hub's stream across replicas. Publish delivers v to
// the local hub before returning and sends it to a Redis channel tagged with
// this relay's origin; Run forwards values published by other relays into the
// local hub and skips its own.
type RedisRelay[T any] struct {
	rdb            *goredis.Client
	channel        string
	origin         string
	local          *Hub[T]
	log            zerolog.Logger
	publishTimeout time.Duration
}

// relayEnvelope is the wire form on the Redis channel.
type relayEnvelope struct {
	Origin string          `json:"origin"`
	Value  json.RawMessage `json:"value"`
}

// NewRedisRelay relays through channel into local.
func NewRedisRelay[T any](rdb *goredis.Client, channel string, local *Hub[T], log zerolog.Logger) *RedisRelay[T] {
	origin := uuid.NewString()
	return &RedisRelay[T]{
		rdb:            rdb,
		channel:        channel,
		origin:         origin,
		local:          local,
		log:            log.With().Str("hub", local.Name()).Str("channel", channel).Str("origin", origin).Logger(),
		publishTimeout: 2 * time.Second,
	}
}

// Publish hands v to the local hub, then to Redis. A failed Redis send only
// affects other replicas and is counted as a fallback.
func (r *RedisRelay[T]) Publish(v T) {
	r.local.Publish(v)

	raw, err := json.Marshal(v)
	if err == nil {
		raw, err = json.Marshal(relayEnvelope{Origin: r.origin, Value: raw})
	}
	if err != nil {
		r.fallback(err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.publishTimeout)
	defer cancel()
	if err := r.rdb.Publish(ctx, r.channel, raw).Err(); err != nil {
		r.fallback(err)
	}
}

func (r *RedisRelay[T]) fallback(err error) {
	relayFallbacks.WithLabelValues(r.local.Name()).Inc()
	r.log.Warn().Err(err).Msg("redis publish failed; value stays on this replica")
}

// Run subscribes to the channel and forwards values until ctx is done. It
// returns nil on cancellation.
func (r *RedisRelay[T]) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis subscribe: %w", err)
	}
	r.log.Info().Msg("redis relay forwarding")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok || m == nil {
				return nil
			}
			r.forward([]byte(m.Payload))
		}
	}
}

// forward publishes a received payload locally unless this relay sent it.
// It reports whether the value was published.
func (r *RedisRelay[T]) forward(payload []byte) bool {
	var env relayEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		r.log.Warn().Err(err).Msg("bad redis stream payload")
		return false
	}
	if env.Origin == r.origin {
		return false
	}
	var v T
	if err := json.Unmarshal(env.Value, &v); err != nil {
		r.log.Warn().Err(err).Msg("bad redis stream value")
		return false
	}
	r.local.Publish(v)
	return true
}
