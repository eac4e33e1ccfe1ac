package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"go.uber.org/zap"

	"voltswap/apierr"
	"voltswap/session"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Info(msg string)  { f.record(msg) }
func (f *fakeNotifier) Warn(msg string)  { f.record(msg) }
func (f *fakeNotifier) Error(msg string) { f.record(msg) }

func (f *fakeNotifier) record(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeNotifier) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type memStorage struct {
	mu   sync.Mutex
	data *session.Data
}

func (m *memStorage) Load(context.Context) (*session.Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, nil
}

func (m *memStorage) Save(_ context.Context, data session.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = &data
	return nil
}

func (m *memStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

func newTestSession(t *testing.T, token string) *session.Store {
	t.Helper()
	storage := &memStorage{}
	if token != "" {
		storage.data = &session.Data{Token: token, UserID: "u1", Role: "STAFF"}
	}
	store, err := session.NewStore(context.Background(), storage)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	return store
}

func TestDoSetsAuthAndContentType(t *testing.T) {
	var gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sess := newTestSession(t, "tok-123")
	tr := New(server.URL, sess, &fakeNotifier{}, zap.NewNop())

	body, err := tr.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/station/api/stations",
		Body:   map[string]string{"name": "S1"},
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", body)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotContentType)
	}
}

func TestDoSkipsAuthWhenLoggedOut(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := New(server.URL, newTestSession(t, ""), &fakeNotifier{}, zap.NewNop())
	if _, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"}); err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no auth header, got %q", gotAuth)
	}
}

func TestDoUnauthorizedClearsSessionAndRethrows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer server.Close()

	sess := newTestSession(t, "stale-token")
	cleared := false
	sess.OnClear(func() { cleared = true })
	notifier := &fakeNotifier{}
	tr := New(server.URL, sess, notifier, zap.NewNop())

	_, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/booking/api/bookings/getall"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !apierr.IsUnauthorized(err) {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if sess.Token() != "" || sess.UserID() != "" || sess.Role() != "" {
		t.Fatalf("expected session cleared, got %+v", sess.Snapshot())
	}
	if !cleared {
		t.Fatal("expected OnClear hook to fire")
	}
	if notifier.last() != "session expired" {
		t.Fatalf("expected session expired notification, got %q", notifier.last())
	}
}

func TestDoStatusNotifications(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "forbidden"},
		{http.StatusNotFound, "not found"},
		{http.StatusInternalServerError, "server error"},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		notifier := &fakeNotifier{}
		tr := New(server.URL, newTestSession(t, "tok"), notifier, zap.NewNop())

		_, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
		server.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if apierr.StatusOf(err) != tc.status {
			t.Fatalf("status %d: got error %v", tc.status, err)
		}
		if notifier.last() != tc.want {
			t.Fatalf("status %d: expected %q notification, got %q", tc.status, tc.want, notifier.last())
		}
	}
}

func TestDoOtherStatusNotifiesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"SLOT_TAKEN","message":"slot already taken"}`))
	}))
	defer server.Close()

	notifier := &fakeNotifier{}
	tr := New(server.URL, newTestSession(t, "tok"), notifier, zap.NewNop())

	_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if notifier.last() != "slot already taken" {
		t.Fatalf("expected server message notification, got %q", notifier.last())
	}
}

func TestDoBusinessErrorSkipsNotification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"BOOKING_CONFLICT","message":"already booked"}`))
	}))
	defer server.Close()

	notifier := &fakeNotifier{}
	tr := New(server.URL, newTestSession(t, "tok"), notifier, zap.NewNop())

	_, err := tr.Do(context.Background(), Request{Method: http.MethodPost, Path: "/booking/api/bookings/create"})
	if err == nil {
		t.Fatal("expected error")
	}
	bizErr, ok := apierr.AsBusiness(err)
	if !ok {
		t.Fatalf("expected business error, got %v", err)
	}
	if bizErr.Code != "BOOKING_CONFLICT" {
		t.Fatalf("unexpected code %q", bizErr.Code)
	}
	if notifier.count() != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.messages)
	}
}

func TestDoUnreachable(t *testing.T) {
	notifier := &fakeNotifier{}
	tr := New("http://127.0.0.1:1", newTestSession(t, "tok"), notifier, zap.NewNop())

	_, err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if !errors.Is(err, apierr.ErrUnreachable) {
		t.Fatalf("expected unreachable error, got %v", err)
	}
	if notifier.last() != "server unreachable" {
		t.Fatalf("expected unreachable notification, got %q", notifier.last())
	}
}

func TestDoSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tr := New(server.URL, newTestSession(t, "tok"), &fakeNotifier{}, zap.NewNop())
	ctx := WithIdempotencyKey(context.Background(), "run-42")
	if _, err := tr.Do(ctx, Request{Method: http.MethodPost, Path: "/x"}); err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotKey != "run-42" {
		t.Fatalf("expected idempotency key, got %q", gotKey)
	}
}

func TestBuildURLQueryEncoding(t *testing.T) {
	tr := New("http://api.local/", newTestSession(t, ""), &fakeNotifier{}, zap.NewNop())

	query := url.Values{}
	query.Set("page", "0")
	query.Set("size", "10")
	got := tr.buildURL("station/api/batteries/getall", query)
	want := "http://api.local/station/api/batteries/getall?page=0&size=10"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
