// Package store holds the client-side projections of backend state. Stores
// subscribe to the dispatcher, fold events into an in-memory snapshot, and
// notify their own listeners so UI surfaces re-render.
package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/famstack/famstack-client/internal/cache"
	"github.com/famstack/famstack-client/internal/dispatch"
	"github.com/famstack/famstack-client/internal/events"
	"github.com/famstack/famstack-client/internal/models"
	"github.com/famstack/famstack-client/internal/rest"
)

const defaultRecentCapacity = 50

// NotificationStore projects push events and REST hydration into the recent
// notification list and unread count.
//
// Push events may arrive before Hydrate resolves; they are buffered and
// replayed on top of the hydrated set so no update is lost and nothing is
// applied against missing base state.
type NotificationStore struct {
	dispatcher *dispatch.Dispatcher
	api        *rest.Client
	cache      *cache.Cache
	capacity   int
	logger     zerolog.Logger

	mu        sync.Mutex
	recent    []models.Notification // newest first, bounded by capacity
	unread    int
	hydrated  bool
	buffered  []events.Payload
	subs      []dispatch.Subscription
	listeners map[int]func()
	nextID    int
	closed    bool
}

func NewNotificationStore(dispatcher *dispatch.Dispatcher, api *rest.Client, c *cache.Cache, capacity int, logger zerolog.Logger) *NotificationStore {
	if capacity <= 0 {
		capacity = defaultRecentCapacity
	}
	s := &NotificationStore{
		dispatcher: dispatcher,
		api:        api,
		cache:      c,
		capacity:   capacity,
		logger:     logger.With().Str("component", "notification_store").Logger(),
		listeners:  make(map[int]func()),
	}
	s.subs = []dispatch.Subscription{
		dispatcher.On(events.EventReceiveNotification, s.handle),
		dispatcher.On(events.EventNotificationStatusUpdated, s.handle),
		dispatcher.On(events.EventUnreadCountUpdated, s.handle),
	}
	return s
}

// Hydrate loads the initial notification list from the REST API, then
// replays any events that arrived while the fetch was in flight. A failed
// fetch degrades to the local cache, or to empty state, and the store keeps
// applying pushes on top.
func (s *NotificationStore) Hydrate(ctx context.Context) error {
	fetched, err := s.api.ListNotifications(ctx, s.capacity)
	if err != nil {
		s.logger.Warn().Err(err).Msg("notification hydration failed, degrading to cached state")
		fetched = s.cachedFallback(ctx)
	}

	s.mu.Lock()
	s.recent = trim(fetched, s.capacity)
	s.unread = countUnread(s.recent)
	s.hydrated = true
	buffered := s.buffered
	s.buffered = nil
	for _, payload := range buffered {
		s.applyLocked(payload)
	}
	s.mu.Unlock()

	s.persist(ctx)
	s.notifyListeners()
	return err
}

func (s *NotificationStore) cachedFallback(ctx context.Context) []models.Notification {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.LoadNotifications(ctx, s.capacity)
	if err != nil {
		s.logger.Warn().Err(err).Msg("notification cache read failed")
		return nil
	}
	return cached
}

// handle is the dispatcher callback for all notification-related events.
func (s *NotificationStore) handle(payload events.Payload) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if !s.hydrated {
		s.buffered = append(s.buffered, payload)
		s.mu.Unlock()
		return
	}
	changed := s.applyLocked(payload)
	s.mu.Unlock()

	if changed {
		s.persist(context.Background())
		s.notifyListeners()
	}
}

// applyLocked folds one event into the snapshot. Caller holds s.mu.
func (s *NotificationStore) applyLocked(payload events.Payload) bool {
	switch p := payload.(type) {
	case events.ReceiveNotification:
		return s.insertLocked(p.Notification())
	case events.NotificationStatusUpdated:
		return s.setReadLocked(p.NotificationID, p.IsRead)
	case events.UnreadCountUpdated:
		if s.unread == p.UnreadCount {
			return false
		}
		s.unread = p.UnreadCount
		return true
	default:
		return false
	}
}

// insertLocked prepends a notification, deduplicating by id. The backend may
// resend after a reconnect; a duplicate id is dropped silently.
func (s *NotificationStore) insertLocked(n models.Notification) bool {
	for _, existing := range s.recent {
		if existing.ID == n.ID {
			return false
		}
	}
	s.recent = append([]models.Notification{n}, s.recent...)
	s.recent = trim(s.recent, s.capacity)
	if !n.IsRead {
		s.unread++
	}
	return true
}

func (s *NotificationStore) setReadLocked(id string, isRead bool) bool {
	for i := range s.recent {
		if s.recent[i].ID != id || s.recent[i].IsRead == isRead {
			continue
		}
		s.recent[i].IsRead = isRead
		if isRead {
			if s.unread > 0 {
				s.unread--
			}
		} else {
			s.unread++
		}
		return true
	}
	return false
}

// Recent returns the visible notification list, newest first.
func (s *NotificationStore) Recent() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.recent))
	copy(out, s.recent)
	return out
}

// UnreadCount returns the current unread notification count.
func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead acknowledges a notification locally and on the backend. The local
// flag flips immediately; the backend push echoing the change is a no-op.
func (s *NotificationStore) MarkRead(ctx context.Context, notificationID string) error {
	s.mu.Lock()
	changed := s.setReadLocked(notificationID, true)
	s.mu.Unlock()
	if changed {
		s.persist(ctx)
		s.notifyListeners()
	}
	return s.api.MarkNotificationRead(ctx, notificationID)
}

// MarkAllRead acknowledges every notification locally and on the backend.
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	changed := false
	for i := range s.recent {
		if !s.recent[i].IsRead {
			s.recent[i].IsRead = true
			changed = true
		}
	}
	s.unread = 0
	s.mu.Unlock()
	if changed {
		s.persist(ctx)
		s.notifyListeners()
	}
	return s.api.MarkAllRead(ctx)
}

// Listen registers fn to run after every state change and returns its
// disposer. Disposing twice is a no-op.
func (s *NotificationStore) Listen(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close releases all dispatcher subscriptions and listeners. The store must
// not be reused after Close; a new session builds a new store.
func (s *NotificationStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.listeners = make(map[int]func())
	s.mu.Unlock()

	for _, sub := range subs {
		s.dispatcher.Off(sub)
	}
}

func (s *NotificationStore) notifyListeners() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *NotificationStore) persist(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveNotifications(ctx, s.Recent()); err != nil {
		s.logger.Warn().Err(err).Msg("notification cache write failed")
	}
}

func trim(list []models.Notification, capacity int) []models.Notification {
	if len(list) > capacity {
		return list[:capacity]
	}
	return list
}

func countUnread(list []models.Notification) int {
	count := 0
	for _, n := range list {
		if !n.IsRead {
			count++
		}
	}
	return count
}
