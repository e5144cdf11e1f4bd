package store

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/famstack/famstack-client/internal/dispatch"
	"github.com/famstack/famstack-client/internal/models"
	"github.com/famstack/famstack-client/internal/rest"
)

// fakeAPI is an in-process stand-in for the backend REST API.
type fakeAPI struct {
	srv *httptest.Server

	mu            sync.Mutex
	notifications []models.Notification
	summary       models.GamificationSummary
	redemption    models.RewardRedemption
	fail          bool
	gate          chan struct{}
	markReadIDs   []string
	markAllCalls  int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.srv = httptest.NewServer(http.HandlerFunc(api.handle))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	gate := a.gate
	fail := a.fail
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		http.Error(w, "backend down", http.StatusInternalServerError)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/notifications":
		a.mu.Lock()
		defer a.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"notifications": a.notifications})
	case r.Method == http.MethodGet && r.URL.Path == "/api/gamification/summary":
		a.mu.Lock()
		defer a.mu.Unlock()
		_ = json.NewEncoder(w).Encode(a.summary)
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/read") && strings.HasPrefix(r.URL.Path, "/api/notifications/"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/notifications/"), "/read")
		a.mu.Lock()
		a.markReadIDs = append(a.markReadIDs, id)
		a.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && r.URL.Path == "/api/notifications/read-all":
		a.mu.Lock()
		a.markAllCalls++
		a.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/redeem"):
		a.mu.Lock()
		defer a.mu.Unlock()
		_ = json.NewEncoder(w).Encode(a.redemption)
	default:
		http.NotFound(w, r)
	}
}

func (a *fakeAPI) client() *rest.Client {
	return rest.NewClient(a.srv.URL, 5*time.Second, zerolog.Nop())
}

func (a *fakeAPI) setFail(fail bool) {
	a.mu.Lock()
	a.fail = fail
	a.mu.Unlock()
}

func (a *fakeAPI) markedRead() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.markReadIDs...)
}

func newTestDispatcher() *dispatch.Dispatcher {
	return dispatch.NewDispatcher(zerolog.Nop())
}

func notif(id string, isRead bool) models.Notification {
	return models.Notification{
		ID:        id,
		UserID:    "user-1",
		Type:      models.NotificationTypeTaskAssigned,
		Title:     "title " + id,
		Message:   "message " + id,
		Priority:  models.NotificationPriorityNormal,
		IsRead:    isRead,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
}

func requireIDs(t *testing.T, list []models.Notification, want ...string) {
	t.Helper()
	got := make([]string, len(list))
	for i, n := range list {
		got[i] = n.ID
	}
	require.Equal(t, want, got)
}
