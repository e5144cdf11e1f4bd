package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/famstack/famstack-client/internal/cache"
	"github.com/famstack/famstack-client/internal/dispatch"
	"github.com/famstack/famstack-client/internal/events"
	"github.com/famstack/famstack-client/internal/models"
	"github.com/famstack/famstack-client/internal/rest"
)

// GamificationStore projects points, level, streak, achievement, and badge
// events into the current summary. Each event replaces the fields it covers
// outright; the displayed values always reflect the most recent event.
type GamificationStore struct {
	dispatcher *dispatch.Dispatcher
	api        *rest.Client
	cache      *cache.Cache
	logger     zerolog.Logger

	mu        sync.Mutex
	summary   models.GamificationSummary
	hydrated  bool
	buffered  []events.Payload
	subs      []dispatch.Subscription
	listeners map[int]func()
	nextID    int
	closed    bool
}

func NewGamificationStore(dispatcher *dispatch.Dispatcher, api *rest.Client, c *cache.Cache, logger zerolog.Logger) *GamificationStore {
	s := &GamificationStore{
		dispatcher: dispatcher,
		api:        api,
		cache:      c,
		logger:     logger.With().Str("component", "gamification_store").Logger(),
		listeners:  make(map[int]func()),
	}
	s.subs = []dispatch.Subscription{
		dispatcher.On(events.EventPointsUpdated, s.handle),
		dispatcher.On(events.EventStreakUpdated, s.handle),
		dispatcher.On(events.EventAchievementUnlocked, s.handle),
		dispatcher.On(events.EventBadgeEarned, s.handle),
	}
	return s
}

// Hydrate loads the initial summary from the REST API and replays buffered
// events on top. A failed fetch degrades to the cached summary or zero
// values; pushes keep applying either way.
func (s *GamificationStore) Hydrate(ctx context.Context) error {
	summary, err := s.api.GetGamificationSummary(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("gamification hydration failed, degrading to cached state")
		summary = s.cachedFallback(ctx)
	}

	s.mu.Lock()
	s.summary = summary
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

func (s *GamificationStore) cachedFallback(ctx context.Context) models.GamificationSummary {
	if s.cache == nil {
		return models.GamificationSummary{}
	}
	cached, ok, err := s.cache.LoadGamificationSummary(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("gamification cache read failed")
		return models.GamificationSummary{}
	}
	if !ok {
		return models.GamificationSummary{}
	}
	return cached
}

func (s *GamificationStore) handle(payload events.Payload) {
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

func (s *GamificationStore) applyLocked(payload events.Payload) bool {
	switch p := payload.(type) {
	case events.PointsUpdated:
		s.summary.Points = p.TotalPoints
		if p.Level > 0 {
			s.summary.Level = p.Level
		}
		s.summary.UpdatedAt = time.Now().UTC()
		return true
	case events.StreakUpdated:
		s.summary.CurrentStreak = p.CurrentStreak
		if p.LongestStreak > s.summary.LongestStreak {
			s.summary.LongestStreak = p.LongestStreak
		}
		s.summary.UpdatedAt = time.Now().UTC()
		return true
	case events.AchievementUnlocked:
		for _, a := range s.summary.AchievementsUnlocked {
			if a.ID == p.Achievement.ID {
				return false
			}
		}
		s.summary.AchievementsUnlocked = append(s.summary.AchievementsUnlocked, p.Achievement)
		s.summary.UpdatedAt = time.Now().UTC()
		return true
	case events.BadgeEarned:
		for _, b := range s.summary.BadgesEarned {
			if b.ID == p.Badge.ID {
				return false
			}
		}
		s.summary.BadgesEarned = append(s.summary.BadgesEarned, p.Badge)
		s.summary.UpdatedAt = time.Now().UTC()
		return true
	default:
		return false
	}
}

// Snapshot returns a copy of the current summary.
func (s *GamificationStore) Snapshot() models.GamificationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.summary
	out.AchievementsUnlocked = append([]models.Achievement(nil), s.summary.AchievementsUnlocked...)
	out.BadgesEarned = append([]models.Badge(nil), s.summary.BadgesEarned...)
	return out
}

// RedeemReward spends points through the REST API and applies the resulting
// balance locally without waiting for the confirming push.
func (s *GamificationStore) RedeemReward(ctx context.Context, rewardID string) (models.RewardRedemption, error) {
	result, err := s.api.RedeemReward(ctx, rewardID)
	if err != nil {
		return models.RewardRedemption{}, err
	}

	s.mu.Lock()
	s.summary.Points = result.RemainingPoints
	s.summary.UpdatedAt = time.Now().UTC()
	s.mu.Unlock()

	s.persist(ctx)
	s.notifyListeners()
	return result, nil
}

// Listen registers fn to run after every state change and returns its
// disposer.
func (s *GamificationStore) Listen(fn func()) func() {
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

// Close releases all dispatcher subscriptions and listeners.
func (s *GamificationStore) Close() {
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

func (s *GamificationStore) notifyListeners() {
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

func (s *GamificationStore) persist(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveGamificationSummary(ctx, s.Snapshot()); err != nil {
		s.logger.Warn().Err(err).Msg("gamification cache write failed")
	}
}
