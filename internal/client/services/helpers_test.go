package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nixixoo/Notex/internal/client/client"
)

// memStore is an in-memory kv.Repository; enough persistence realism for
// service-level tests without a database file.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

// writeData wraps v in the API's response envelope.
func writeData(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": v}))
}

func writeAPIError(t *testing.T, w http.ResponseWriter, status int, msg string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"error": msg}))
}

// newTestAPI builds a Client against an httptest server, wired with the
// store-backed token source the real app uses.
func newTestAPI(t *testing.T, store *memStore, handler http.Handler) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.New(srv.URL,
		client.WithTokenSource(NewStoredTokenSource(store)),
		client.WithRetryBase(time.Millisecond),
	)
}

// unusedAPI fails the test if any request reaches it. Guest-mode data
// operations must never leave the device.
func unusedAPI(t *testing.T, store *memStore) *client.Client {
	t.Helper()
	return newTestAPI(t, store, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected api request: %s %s", r.Method, r.URL.Path)
		writeAPIError(t, w, http.StatusInternalServerError, "unexpected")
	}))
}
