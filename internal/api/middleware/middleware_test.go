package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/freelancehub/wallet-ledger/internal/idempotency"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret   = "middleware-test-secret-0123456789"
	testIssuer   = "freelancehub-test"
	testAudience = "wallet-ledger-test"
)

func signedToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	now := time.Now()
	base := jwt.MapClaims{
		"iss": testIssuer,
		"aud": testAudience,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, base).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func configureAuth(t *testing.T) {
	t.Helper()
	SetJWTSecret(testSecret)
	SetJWTValidation(testIssuer, testAudience)
}

func TestAuthMiddleware(t *testing.T) {
	configureAuth(t)

	tests := []struct {
		name       string
		header     func(t *testing.T) string
		wantStatus int
		wantID     int64
		wantRole   string
	}{
		{
			name:       "missing header",
			header:     func(*testing.T) string { return "" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not a bearer token",
			header:     func(*testing.T) string { return "Basic abc" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "numeric user id",
			header: func(t *testing.T) string {
				return "Bearer " + signedToken(t, jwt.MapClaims{"user_id": 42, "role": "freelancer", "sub": "42"}, testSecret)
			},
			wantStatus: http.StatusOK,
			wantID:     42,
			wantRole:   "freelancer",
		},
		{
			name: "string user id",
			header: func(t *testing.T) string {
				return "Bearer " + signedToken(t, jwt.MapClaims{"user_id": "7", "role": "admin"}, testSecret)
			},
			wantStatus: http.StatusOK,
			wantID:     7,
			wantRole:   "admin",
		},
		{
			name: "subject mismatch",
			header: func(t *testing.T) string {
				return "Bearer " + signedToken(t, jwt.MapClaims{"user_id": 42, "role": "client", "sub": "43"}, testSecret)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "missing role",
			header: func(t *testing.T) string {
				return "Bearer " + signedToken(t, jwt.MapClaims{"user_id": 42}, testSecret)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			header: func(t *testing.T) string {
				return "Bearer " + signedToken(t, jwt.MapClaims{"user_id": 42, "role": "client"}, "another-secret-another-secret-xx")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong audience",
			header: func(t *testing.T) string {
				return "Bearer " + signedToken(t, jwt.MapClaims{"user_id": 42, "role": "client", "aud": "someone-else"}, testSecret)
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			var gotRole string
			h := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = UserIDFromContext(r.Context())
				gotRole = UserRoleFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/freelancer/wallet", nil)
			if v := tt.header(t); v != "" {
				req.Header.Set("Authorization", v)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantID, gotID)
			assert.Equal(t, tt.wantRole, gotRole)
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireRole("admin")(ok)

	for role, want := range map[string]int{"admin": http.StatusNoContent, "client": http.StatusForbidden, "": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/v1/admin/payouts", nil)
		req = req.WithContext(context.WithValue(req.Context(), roleContextKey, role))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "role %q", role)
	}
}

func TestTraceMiddleware(t *testing.T) {
	var seen string
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Trace-ID", "trace-abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "trace-abc", seen)
	assert.Equal(t, "trace-abc", w.Header().Get("X-Trace-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Trace-ID", strings.Repeat("x", maxTraceIDLength+1))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Len(t, seen, 36)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/orders/1", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
}

func TestHashRequest(t *testing.T) {
	a := hashRequest(http.MethodPost, "/v1/freelancer/wallet/payout-request", []byte(`{"amount":1}`))
	assert.Equal(t, a, hashRequest(http.MethodPost, "/v1/freelancer/wallet/payout-request", []byte(`{"amount":1}`)))
	assert.NotEqual(t, a, hashRequest(http.MethodPost, "/v1/freelancer/wallet/payout-request", []byte(`{"amount":2}`)))
	assert.NotEqual(t, a, hashRequest(http.MethodPost, "/v1/admin/wallets/manual-operation", []byte(`{"amount":1}`)))
}

// memoryStore is an in-process IdempotencyStore.
type memoryStore struct {
	mu       sync.Mutex
	records  map[string]*idempotency.Record
	reserved map[string]string
	released int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]*idempotency.Record{}, reserved: map[string]string{}}
}

func (m *memoryStore) Lookup(_ context.Context, scope, key, hash string) (*idempotency.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[scope+"/"+key]; ok {
		if rec.RequestHash != hash {
			return nil, idempotency.ErrHashMismatch
		}
		return rec, nil
	}
	if h, ok := m.reserved[scope+"/"+key]; ok {
		if h != hash {
			return nil, idempotency.ErrHashMismatch
		}
		return nil, idempotency.ErrInProgress
	}
	return nil, idempotency.ErrNotFound
}

func (m *memoryStore) Reserve(_ context.Context, scope, key, hash, _, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reserved[scope+"/"+key]; ok {
		return false, nil
	}
	m.reserved[scope+"/"+key] = hash
	return true, nil
}

func (m *memoryStore) Finalize(_ context.Context, scope, key, hash string, status int, body []byte, contentType string) (*idempotency.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &idempotency.Record{Scope: scope, Key: key, RequestHash: hash, Status: status, Body: body, ContentType: contentType, ServedBy: "memory"}
	m.records[scope+"/"+key] = rec
	return rec, nil
}

func (m *memoryStore) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reserved, scope+"/"+key)
	m.released++
	return nil
}

func (m *memoryStore) WaitForCompletion(ctx context.Context, scope, key, hash string) (*idempotency.Record, error) {
	return m.Lookup(ctx, scope, key, hash)
}

func idempotentRequest(userID int64, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/freelancer/wallet/payout-request", bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if userID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), userContextKey, userID))
	}
	return req
}

func TestIdempotencyMiddleware(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	h := IdempotencyMiddleware(store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, idempotentRequest(5, "", `{"amount":1}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, idempotentRequest(5, "k1", `{"amount":1}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, idempotentRequest(5, "k1", `{"amount":1}`))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"id":1}`, w.Body.String())
	assert.Equal(t, "memory", w.Header().Get("X-Idempotent-Replay"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, idempotentRequest(5, "k1", `{"amount":2}`))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Same key value from another user is a separate request.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, idempotentRequest(6, "k1", `{"amount":1}`))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyMiddlewareReleasesOnServerError(t *testing.T) {
	store := newMemoryStore()
	status := http.StatusInternalServerError
	h := IdempotencyMiddleware(store, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, idempotentRequest(5, "retry-me", `{}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, store.released)

	status = http.StatusOK
	w = httptest.NewRecorder()
	h.ServeHTTP(w, idempotentRequest(5, "retry-me", `{}`))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdempotencyMiddlewareRequiresCaller(t *testing.T) {
	h := IdempotencyMiddleware(newMemoryStore(), zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, idempotentRequest(0, "k", `{}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
