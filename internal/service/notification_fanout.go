package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/course-market-api/internal/dto"
	"github.com/noah-isme/course-market-api/internal/models"
	"github.com/noah-isme/course-market-api/internal/observability"
)

const (
	notificationStreamBuffer = 16
	relaySeenCapacity        = 1024
)

// notificationHub holds the open SSE streams on this node, keyed by user.
// A full stream buffer drops the event; clients reload the list on reconnect.
type notificationHub struct {
	mu      sync.Mutex
	nextID  uint64
	streams map[string]map[uint64]chan dto.NotificationResponse
}

func newNotificationHub() *notificationHub {
	return &notificationHub{streams: make(map[string]map[uint64]chan dto.NotificationResponse)}
}

func (h *notificationHub) attach(userID string) (uint64, chan dto.NotificationResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan dto.NotificationResponse, notificationStreamBuffer)
	if h.streams[userID] == nil {
		h.streams[userID] = make(map[uint64]chan dto.NotificationResponse)
	}
	h.streams[userID][h.nextID] = ch
	return h.nextID, ch
}

func (h *notificationHub) detach(userID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	streams := h.streams[userID]
	ch, ok := streams[id]
	if !ok {
		return
	}
	delete(streams, id)
	close(ch)
	if len(streams) == 0 {
		delete(h.streams, userID)
	}
}

// deliver reports how many of the user's streams had no room for the event.
func (h *notificationHub) deliver(notification dto.NotificationResponse) (dropped int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.streams[notification.UserID] {
		select {
		case ch <- notification:
		default:
			dropped++
		}
	}
	return dropped
}

type relayKey struct {
	origin string
	id     uint
}

// relaySeen remembers the most recent relayed notifications so an event that
// arrives over both Redis and NATS reaches the streams once.
type relaySeen struct {
	mu    sync.Mutex
	keys  map[relayKey]struct{}
	order []relayKey
	next  int
}

func newRelaySeen(capacity int) *relaySeen {
	return &relaySeen{keys: make(map[relayKey]struct{}, capacity), order: make([]relayKey, 0, capacity)}
}

// firstSighting records key and reports whether it was new.
func (r *relaySeen) firstSighting(key relayKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key]; ok {
		return false
	}
	if len(r.order) < cap(r.order) {
		r.order = append(r.order, key)
	} else {
		delete(r.keys, r.order[r.next])
		r.order[r.next] = key
		r.next = (r.next + 1) % len(r.order)
	}
	r.keys[key] = struct{}{}
	return true
}

// relayedNotification is the cross-node wire format.
type relayedNotification struct {
	Origin       string                   `json:"origin"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

// notificationRelay carries stored notifications between API nodes.
type notificationRelay interface {
	name() string
	send(ctx context.Context, payload []byte) error
	// listen blocks until ctx is done or the transport fails.
	listen(ctx context.Context, receive func([]byte)) error
}

type redisRelay struct {
	client  *redis.Client
	channel string
}

func (r *redisRelay) name() string { return "redis" }

func (r *redisRelay) send(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *redisRelay) listen(ctx context.Context, receive func([]byte)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis subscription closed")
			}
			receive([]byte(msg.Payload))
		}
	}
}

// natsRelay uses a plain subscription so every node sees every notification.
type natsRelay struct {
	conn    *nats.Conn
	subject string
}

func (r *natsRelay) name() string { return "nats" }

func (r *natsRelay) send(_ context.Context, payload []byte) error {
	return r.conn.Publish(r.subject, payload)
}

func (r *natsRelay) listen(ctx context.Context, receive func([]byte)) error {
	sub, err := r.conn.Subscribe(r.subject, func(msg *nats.Msg) { receive(msg.Data) })
	if err != nil {
		return err
	}
	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return err
	}
	return ctx.Err()
}

// Start listens on every configured relay until ctx is cancelled.
func (s *notificationService) Start(ctx context.Context) {
	for _, relay := range s.relays {
		go func() {
			err := relay.listen(ctx, s.receive)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Str("relay", relay.name()).Msg("notification relay stopped")
			}
		}()
	}
}

func (s *notificationService) Subscribe(userID string) (<-chan dto.NotificationResponse, func()) {
	id, ch := s.hub.attach(userID)
	observability.SSEClientsActive().Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.hub.detach(userID, id)
			observability.SSEClientsActive().Dec()
		})
	}
}

func (s *notificationService) relay(ctx context.Context, notification dto.NotificationResponse) {
	if len(s.relays) == 0 {
		return
	}
	payload, err := json.Marshal(relayedNotification{
		Origin:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("notification_id", notification.ID).Msg("failed to encode relayed notification")
		return
	}
	for _, relay := range s.relays {
		if err := relay.send(ctx, payload); err != nil {
			s.logger.Warn().Err(err).Str("relay", relay.name()).Uint("notification_id", notification.ID).Msg("notification not relayed")
		}
	}
}

func (s *notificationService) receive(payload []byte) {
	var event relayedNotification
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed relayed notification")
		return
	}
	if event.Origin == s.nodeID {
		return
	}
	if !s.seen.firstSighting(relayKey{origin: event.Origin, id: event.Notification.ID}) {
		return
	}

	notification := event.Notification
	if notification.Type == "" {
		notification.Type = string(models.NotificationSystem)
	}
	if dropped := s.hub.deliver(notification); dropped > 0 {
		s.logger.Debug().Str("user_id", notification.UserID).Int("dropped", dropped).Msg("notification stream buffer full")
	}
}
