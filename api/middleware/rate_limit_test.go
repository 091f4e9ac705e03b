package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
)

type countingLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newCountingLimiter() *countingLimiter {
	return &countingLimiter{counts: map[string]int64{}}
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if c.err != nil {
		return false, 0, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func login(h http.Handler, body, contentType, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCredentialRateLimitRestoresBody(t *testing.T) {
	policy := CredentialPolicy{Name: "login", Window: time.Minute, PerIP: 5, PerEmail: 5}
	var seen string
	h := CredentialRateLimit(policy, newCountingLimiter(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	}))

	body := `{"email":"reader@example.com","password":"secret"}`
	login(h, body, "application/json", "1.2.3.4:5678")
	assert.Equal(t, body, seen)
}

func TestCredentialRateLimitPerEmailAcrossIPs(t *testing.T) {
	limiter := newCountingLimiter()
	h := CredentialRateLimit(CredentialPolicy{Name: "login", Window: time.Minute, PerEmail: 1}, limiter, nil)(okHandler())

	first := login(h, "email=Reader%40Example.com&password=x", "application/x-www-form-urlencoded", "10.0.0.1:1")
	second := login(h, `{"email":" reader@example.com "}`, "application/json", "10.0.0.2:1")

	assert.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Equal(t, string(pkgerrors.CodeRateLimit), errorCode(t, second))
	assert.Contains(t, limiter.counts, "auth:login:email:"+digestEmail("reader@example.com"))
	for scope := range limiter.counts {
		assert.NotContains(t, scope, "reader@")
	}
}

func TestCredentialRateLimitPerIP(t *testing.T) {
	h := CredentialRateLimit(CredentialPolicy{Name: "register", Window: time.Minute, PerIP: 1}, newCountingLimiter(), nil)(okHandler())

	assert.Equal(t, http.StatusOK, login(h, `{"email":"a@example.com"}`, "", "5.6.7.8:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, login(h, `{"email":"b@example.com"}`, "", "5.6.7.8:2").Code)
	assert.Equal(t, http.StatusOK, login(h, `{"email":"c@example.com"}`, "", "9.9.9.9:1").Code)
}

func TestCredentialRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	limiter := newCountingLimiter()
	h := CredentialRateLimit(CredentialPolicy{Name: "login", PerIP: 1}, limiter, nil)(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, login(h, "", "", "1.1.1.1:1").Code)
	}
	assert.Empty(t, limiter.counts)
}

func TestCredentialRateLimitStoreFailure(t *testing.T) {
	limiter := newCountingLimiter()
	limiter.err = errors.New("redis down")
	h := CredentialRateLimit(CredentialPolicy{Name: "login", Window: time.Minute, PerIP: 1}, limiter, nil)(okHandler())

	rec := login(h, "", "", "1.1.1.1:1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUserRateLimitKeepsWindowsPerUser(t *testing.T) {
	limiter := newCountingLimiter()
	h := UserRateLimit("assistant", time.Minute, 2, limiter, nil)(okHandler())

	chat := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/chat", nil)
		req = req.WithContext(WithActor(req.Context(), user, "customer", "jti"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, chat("u1"))
	assert.Equal(t, http.StatusOK, chat("u1"))
	assert.Equal(t, http.StatusTooManyRequests, chat("u1"))
	assert.Equal(t, http.StatusOK, chat("u2"))
	assert.Contains(t, limiter.counts, "assistant:u1")
}

func TestUserRateLimitRequiresUser(t *testing.T) {
	h := UserRateLimit("assistant", time.Minute, 2, newCountingLimiter(), nil)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name, forwarded, realIP, remote, want string
	}{
		{"first valid forwarded hop", "unknown, 203.0.113.9", "", "10.0.0.1:1", "203.0.113.9"},
		{"real ip header", "", "198.51.100.7", "10.0.0.1:1", "198.51.100.7"},
		{"socket peer", "", "", "198.51.100.4:4000", "198.51.100.4"},
		{"peer without port", "", "", "pipe", "pipe"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if tc.realIP != "" {
			req.Header.Set("X-Real-IP", tc.realIP)
		}
		assert.Equal(t, tc.want, clientIP(req), tc.name)
	}
}
