// Package notify implements the Notification Bridge: one dedicated
// connection issuing LISTEN per queue channel, demultiplexing NOTIFY
// payloads into per-queue in-process mailboxes so workers wake up near
// instantly instead of pure-polling (spec.md §4.2).
package notify

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// Bridge owns one pgx connection dedicated to LISTEN and a mailbox per
// channel. Mailboxes are buffered channels of row ids holding up to 4096
// entries; a notification that arrives while its mailbox is full is
// dropped. A worker blocks on its mailbox with a timeout and falls back to
// polling pick() when nothing arrives, matching spec.md §4.2's "fall back to polling if
// the connection or notifications are lost".
type Bridge struct {
	dsn      string
	log      *logger.Logger
	mu       sync.Mutex
	mailboxes map[string]chan int64
}

func New(dsn string, log *logger.Logger) *Bridge {
	return &Bridge{
		dsn:       dsn,
		log:       log.With("component", "notify.Bridge"),
		mailboxes: make(map[string]chan int64),
	}
}

// Mailbox returns (creating if needed) the channel carrying row ids
// notified on the given Postgres channel name.
func (b *Bridge) Mailbox(channel string) <-chan int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.mailboxes[channel]
	if !ok {
		ch = make(chan int64, 4096)
		b.mailboxes[channel] = ch
	}
	return ch
}

// Run connects, issues LISTEN for every registered channel, and blocks
// processing notifications until ctx is cancelled. On any connection error
// it reconnects after a fixed backoff. Channels must be registered (via
// Mailbox) before calling Run, since LISTEN is issued once at connect time
// for every known channel.
func (b *Bridge) Run(ctx context.Context, reconnectDelay time.Duration) {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := b.listenOnce(ctx); err != nil {
			b.log.Warn("listen connection lost, reconnecting", "error", err, "delay", reconnectDelay.String())
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}
}

func (b *Bridge) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, b.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	b.mu.Lock()
	channels := make([]string, 0, len(b.mailboxes))
	for ch := range b.mailboxes {
		channels = append(channels, ch)
	}
	b.mu.Unlock()

	for _, ch := range channels {
		if _, err := conn.Exec(ctx, `LISTEN "`+ch+`"`); err != nil {
			return err
		}
	}
	b.log.Info("listening", "channels", channels)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		b.dispatch(notification)
	}
}

func (b *Bridge) dispatch(n *pgconn.Notification) {
	id, err := strconv.ParseInt(n.Payload, 10, 64)
	if err != nil {
		b.log.Warn("dropping unparsable notification payload", "channel", n.Channel, "payload", n.Payload)
		return
	}
	b.mu.Lock()
	mailbox, ok := b.mailboxes[n.Channel]
	b.mu.Unlock()
	if !ok {
		return
	}
	select {
	case mailbox <- id:
	default:
		b.log.Warn("mailbox full, dropping wakeup (worker will fall back to polling)", "channel", n.Channel)
	}
}

// WaitOrTimeout blocks on the mailbox for up to timeout, returning
// (id, true) on a wakeup or (0, false) on timeout (the caller should then
// retry pick() directly, per spec.md §4.2).
func WaitOrTimeout(mailbox <-chan int64, timeout time.Duration) (int64, bool) {
	select {
	case id := <-mailbox:
		return id, true
	case <-time.After(timeout):
		return 0, false
	}
}
