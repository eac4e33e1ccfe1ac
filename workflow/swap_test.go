package workflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"voltswap/api"
	"voltswap/cache"
	"voltswap/clients"
	"voltswap/notify"
	"voltswap/session"
	"voltswap/transport"
)

type fakeBackend struct {
	mu       sync.Mutex
	requests []string
	failOn   string
	idemKeys map[string]struct{}
}

func (b *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.URL.Path)
		if key := r.Header.Get("Idempotency-Key"); key != "" {
			b.idemKeys[key] = struct{}{}
		}
		fail := b.failOn != "" && r.URL.Path == b.failOn
		b.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"station offline"}`))
			return
		}
		w.Write([]byte(`{"id":55,"status":"OK"}`))
	})
}

func (b *fakeBackend) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

func newTestPipeline(t *testing.T, backend *fakeBackend) (*SwapPipeline, *cache.Store, func()) {
	t.Helper()
	server := httptest.NewServer(backend.handler())

	sess, err := session.NewStore(context.Background(), nil)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	logger := zap.NewNop()
	tr := transport.New(server.URL, sess, notify.NopNotifier{}, logger)
	apiClient := api.New(tr, sess, notify.NopNotifier{}, logger)
	store := cache.NewStore(apiClient, sess, notify.NopNotifier{}, logger)

	pipeline := NewSwapPipeline(
		clients.NewBookingsClient(apiClient),
		clients.NewBatteriesClient(apiClient),
		clients.NewPaymentsClient(apiClient),
		store,
		logger,
	)
	return pipeline, store, server.Close
}

func swapParams() SwapParams {
	return SwapParams{
		BookingID:     10,
		BatteryID:     4,
		FromStationID: 1,
		ToStationID:   2,
		UserID:        "u1",
		Amount:        50000,
		PaymentMethod: clients.PaymentMethodCash,
	}
}

func TestSwapPipelineHappyPath(t *testing.T) {
	backend := &fakeBackend{idemKeys: map[string]struct{}{}}
	pipeline, _, closeFn := newTestPipeline(t, backend)
	defer closeFn()

	result, err := pipeline.Execute(context.Background(), swapParams())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.PaymentID != 55 {
		t.Fatalf("expected payment id from backend, got %d", result.PaymentID)
	}

	want := []string{
		"/booking/api/bookings/10/confirm",
		"/station/api/batteries/event/hold",
		"/billing/api/payments/swap",
		"/billing/api/payments/55/confirm-cash",
		"/station/api/batteries/event/swapstation-to-station",
		"/booking/api/bookings/10/complete",
	}
	got := backend.paths()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if len(backend.idemKeys) != 1 {
		t.Fatalf("expected one idempotency key across the run, got %d", len(backend.idemKeys))
	}
}

func TestSwapPipelineCompensatesOnSwapFailure(t *testing.T) {
	backend := &fakeBackend{
		idemKeys: map[string]struct{}{},
		failOn:   "/station/api/batteries/event/swapstation-to-station",
	}
	pipeline, _, closeFn := newTestPipeline(t, backend)
	defer closeFn()

	if _, err := pipeline.Execute(context.Background(), swapParams()); err == nil {
		t.Fatal("expected pipeline failure")
	}

	got := backend.paths()
	want := []string{
		"/booking/api/bookings/10/confirm",
		"/station/api/batteries/event/hold",
		"/billing/api/payments/swap",
		"/billing/api/payments/55/confirm-cash",
		"/station/api/batteries/event/swapstation-to-station",
		"/billing/api/payments/55/refund",
		"/station/api/batteries/event/release",
		"/booking/api/bookings/10/cancel",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSwapPipelineInvalidatesCachesOnSuccess(t *testing.T) {
	backend := &fakeBackend{idemKeys: map[string]struct{}{}}
	pipeline, store, closeFn := newTestPipeline(t, backend)
	defer closeFn()

	var fetches int
	fetch := func(context.Context) (interface{}, error) {
		fetches++
		return "bookings", nil
	}
	key := cache.NewKey("bookings")
	if _, err := store.Query(context.Background(), key, fetch, nil); err != nil {
		t.Fatalf("query: %v", err)
	}

	if _, err := pipeline.Execute(context.Background(), swapParams()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if _, err := store.Query(context.Background(), key, fetch, nil); err != nil {
		t.Fatalf("query after pipeline: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("expected pipeline to invalidate bookings key, got %d fetches", fetches)
	}
}
