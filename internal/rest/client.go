// Package rest is the HTTP client used for initial state hydration and for
// imperative actions (mark-as-read, redeem). Push traffic never flows
// through here.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/famstack/famstack-client/internal/models"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
var ErrUnauthorized = errors.New("unauthorized")

type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "rest").Logger(),
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type listNotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

// ListNotifications fetches the user's recent notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	path := "/api/notifications"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp listNotificationsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "listing notifications")
	}
	return resp.Notifications, nil
}

// GetGamificationSummary fetches the user's current points, level, streak,
// achievements, and badges.
func (c *Client) GetGamificationSummary(ctx context.Context) (models.GamificationSummary, error) {
	var summary models.GamificationSummary
	if err := c.do(ctx, http.MethodGet, "/api/gamification/summary", nil, &summary); err != nil {
		return models.GamificationSummary{}, errors.Wrap(err, "fetching gamification summary")
	}
	return summary, nil
}

// MarkNotificationRead acknowledges a single notification on the backend.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	path := fmt.Sprintf("/api/notifications/%s/read", notificationID)
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return errors.Wrapf(err, "marking notification %s read", notificationID)
	}
	return nil
}

// MarkAllRead acknowledges every unread notification on the backend.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPut, "/api/notifications/read-all", nil, nil); err != nil {
		return errors.Wrap(err, "marking all notifications read")
	}
	return nil
}

// RedeemReward spends points on a reward and returns the redemption result.
func (c *Client) RedeemReward(ctx context.Context, rewardID string) (models.RewardRedemption, error) {
	path := fmt.Sprintf("/api/rewards/%s/redeem", rewardID)
	var result models.RewardRedemption
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return models.RewardRedemption{}, errors.Wrapf(err, "redeeming reward %s", rewardID)
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response body")
	}
	return nil
}
