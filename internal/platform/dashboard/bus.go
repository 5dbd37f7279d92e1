// Package dashboard adapts the teacher's Redis pub/sub SSE bus
// (internal/clients/redis/sse_bus.go) into an optional secondary
// broadcast channel for queue dashboard stats (SPEC_FULL.md Domain Stack:
// "an optional secondary broadcast bus for queue dashboard stats...
// consumed by an operations dashboard outside this core's scope; the
// primary wakeup path is Postgres LISTEN/NOTIFY per spec §4.2").
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

// Snapshot is one broadcast: every queue's dashboard stats keyed by queue
// name (spec.md §6 dashboard_stats).
type Snapshot struct {
	Queues    map[string]queue.Stats `json:"queues"`
	CreatedAt time.Time              `json:"created_at"`
}

// Bus publishes/consumes Snapshots over Redis pub/sub. Nil-safe: a Bus
// built with no address configured is never constructed (see New), so
// every method receiver here always has a live client.
type Bus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// New connects to Redis and pings it once; any failure here means the
// operations dashboard feature is unavailable, which is a non-fatal
// degrade (the caller is expected to treat a nil Bus as "not configured").
func New(ctx context.Context, addr, channel string, log *logger.Logger) (*Bus, error) {
	if addr == "" {
		return nil, fmt.Errorf("dashboard: no redis address configured")
	}
	if channel == "" {
		channel = "chatcortex_dashboard"
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("dashboard: redis ping: %w", err)
	}

	return &Bus{log: log.With("component", "dashboard.Bus"), rdb: rdb, channel: channel}, nil
}

func (b *Bus) Publish(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and invokes onMsg for every decodable
// snapshot until ctx is cancelled, matching the teacher's subscribe-then-
// range-over-channel shape.
func (b *Bus) StartForwarder(ctx context.Context, onMsg func(Snapshot)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("dashboard: subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var snap Snapshot
				if err := json.Unmarshal([]byte(m.Payload), &snap); err != nil {
					b.log.Warn("bad dashboard snapshot payload", "error", err)
					continue
				}
				onMsg(snap)
			}
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	return b.rdb.Close()
}

// BroadcastLoop periodically gathers DashboardStats from every queue and
// publishes a Snapshot, until ctx is cancelled.
func BroadcastLoop(ctx context.Context, bus *Bus, queues map[string]*queue.Service, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := Snapshot{Queues: make(map[string]queue.Stats, len(queues)), CreatedAt: time.Now().UTC()}
			for name, q := range queues {
				stats, err := q.DashboardStats(ctx)
				if err != nil {
					log.Warn("dashboard stats failed", "queue", name, "error", err)
					continue
				}
				snap.Queues[name] = stats
			}
			if err := bus.Publish(ctx, snap); err != nil {
				log.Warn("dashboard publish failed", "error", err)
			}
		}
	}
}
