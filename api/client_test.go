package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"voltswap/apierr"
	"voltswap/notify"
	"voltswap/session"
	"voltswap/transport"
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

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Store, *fakeNotifier, func()) {
	t.Helper()
	server := httptest.NewServer(handler)

	sess, err := session.NewStore(context.Background(), nil)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	notifier := &fakeNotifier{}
	tr := transport.New(server.URL, sess, notifier, zap.NewNop())
	return New(tr, sess, notifier, zap.NewNop()), sess, notifier, server.Close
}

var _ notify.Notifier = (*fakeNotifier)(nil)

func TestGetUnwrapsDataEnvelope(t *testing.T) {
	client, _, _, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":5,"name":"Central"}}`))
	}))
	defer closeFn()

	var out struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := client.Get(context.Background(), "/station/api/stations/5", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.ID != 5 || out.Name != "Central" {
		t.Fatalf("unexpected payload %+v", out)
	}
}

func TestGetDecodesBarePayload(t *testing.T) {
	client, _, _, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":5,"name":"Central"}`))
	}))
	defer closeFn()

	var out struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := client.Get(context.Background(), "/station/api/stations/5", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.ID != 5 || out.Name != "Central" {
		t.Fatalf("unexpected payload %+v", out)
	}
}

func TestGetDecodesPageEnvelope(t *testing.T) {
	client, _, _, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"id":1}],"totalPages":1,"totalElements":1}`))
	}))
	defer closeFn()

	var page Page[struct {
		ID int64 `json:"id"`
	}]
	if err := client.Get(context.Background(), "/booking/api/bookings/getall", nil, &page); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(page.Content) != 1 || page.Content[0].ID != 1 {
		t.Fatalf("unexpected content %+v", page.Content)
	}
	if page.TotalPages != 1 || page.TotalElements != 1 {
		t.Fatalf("page metadata lost: %+v", page)
	}
}

func TestPageContentDefaultsToEmptySlice(t *testing.T) {
	var page Page[int]
	if err := Decode([]byte(`{"totalPages":0,"totalElements":0}`), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Content == nil {
		t.Fatal("expected non-nil content")
	}
	if len(page.Content) != 0 {
		t.Fatalf("expected empty content, got %v", page.Content)
	}
}

func TestPostDecodesLikeOtherVerbs(t *testing.T) {
	client, _, _, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{"data":{"id":8}}`))
	}))
	defer closeFn()

	var out struct {
		ID int64 `json:"id"`
	}
	if err := client.Post(context.Background(), "/booking/api/bookings/create", map[string]int{"stationId": 1}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if out.ID != 8 {
		t.Fatalf("expected id 8, got %d", out.ID)
	}
}

func TestBusinessErrorPassesThroughSilently(t *testing.T) {
	client, _, notifier, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"BOOKING_CONFLICT","message":"already booked"}`))
	}))
	defer closeFn()

	err := client.Post(context.Background(), "/booking/api/bookings/create", nil, nil)
	if _, ok := apierr.AsBusiness(err); !ok {
		t.Fatalf("expected business error, got %v", err)
	}
	if notifier.count() != 0 {
		t.Fatal("business error must not notify")
	}
}

func TestUnauthorizedClearsSessionAtClientLayerToo(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, sess, _, closeFn := newTestClient(t, handler)
	defer closeFn()

	err := client.Get(context.Background(), "/x", nil, nil)
	if !apierr.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if sess.Token() != "" {
		t.Fatal("expected session cleared")
	}
}

func TestUploadSendsMultipartForm(t *testing.T) {
	client, _, _, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart content type, got %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		file, header, err := r.FormFile("avatar")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			defer file.Close()
			if header.Filename != "avatar.png" {
				t.Errorf("unexpected filename %q", header.Filename)
			}
		}
		w.Write([]byte(`{"data":{"url":"/files/avatar.png"}}`))
	}))
	defer closeFn()

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("avatar", "avatar.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("png-bytes"))
	writer.Close()

	var out struct {
		URL string `json:"url"`
	}
	if err := client.Upload(context.Background(), "/user/api/users/avatar", &form, writer.FormDataContentType(), &out); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out.URL != "/files/avatar.png" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestDecodeNullDataIsNotTheEnvelope(t *testing.T) {
	var out struct {
		Token string `json:"token"`
	}
	if err := Decode([]byte(`{"token":"abc","data":null}`), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Token != "abc" {
		t.Fatalf("sibling field lost, got %+v", out)
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	var out map[string]interface{}
	if err := Decode(nil, &out); err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if out != nil {
		t.Fatalf("expected untouched out, got %v", out)
	}
}
