package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakthi-t/bookscart/api/responses"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/logger"
)

// maxCredentialBody bounds how much of a login/register body is buffered to find the email.
const maxCredentialBody = 64 << 10

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// CredentialPolicy throttles one credential endpoint per client IP and per
// submitted email. A zero limit switches that dimension off.
type CredentialPolicy struct {
	Name     string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

type windowCheck struct {
	scope string
	limit int
}

func (p CredentialPolicy) active() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerEmail > 0)
}

// CredentialRateLimit applies p before login or register. The email is peeked
// from a JSON or urlencoded body, hashed, and the body is restored for the handler.
func CredentialRateLimit(p CredentialPolicy, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !p.active() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var checks []windowCheck
			if ip := clientIP(r); p.PerIP > 0 && ip != "" {
				checks = append(checks, windowCheck{"auth:" + p.Name + ":ip:" + ip, p.PerIP})
			}
			if p.PerEmail > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if email := peekEmail(r.Header.Get("Content-Type"), body); email != "" {
					checks = append(checks, windowCheck{"auth:" + p.Name + ":email:" + digestEmail(email), p.PerEmail})
				}
			}

			for _, c := range checks {
				ok, n, err := limiter.FixedWindowAllow(ctx, c.scope, int64(c.limit), p.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !ok {
					tooManyRequests(ctx, logg, w, c.scope, n, c.limit, p.Window, "too many attempts, try again later")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserRateLimit throttles an authenticated surface per user. It must run after Auth.
func UserRateLimit(name string, window time.Duration, limit int, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || window <= 0 || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			if userID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			scope := name + ":" + userID
			ok, n, err := limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !ok {
				tooManyRequests(ctx, logg, w, scope, n, limit, window, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tooManyRequests(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, scope string, attempts int64, limit int, window time.Duration, msg string) {
	seconds := int(window.Seconds())
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"scope":          scope,
			"attempts":       attempts,
			"limit":          limit,
			"window_seconds": seconds,
		}), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, msg))
}

// clientIP takes the first parseable X-Forwarded-For hop, then X-Real-IP, then the peer address.
func clientIP(r *http.Request) string {
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(hop)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func peekEmail(contentType string, body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var raw string
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return ""
		}
		raw = values.Get("email")
	} else {
		var payload struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(body, &payload) != nil {
			return ""
		}
		raw = payload.Email
	}
	return strings.ToLower(strings.TrimSpace(raw))
}

// digestEmail keeps raw addresses out of Redis keys and logs.
func digestEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:16])
}
