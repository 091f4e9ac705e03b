package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakthi-t/bookscart/api/responses"
	pkgerrors "github.com/sakthi-t/bookscart/pkg/errors"
	"github.com/sakthi-t/bookscart/pkg/logger"
	pkgredis "github.com/sakthi-t/bookscart/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	// claimTTL bounds how long a crashed request can hold a key before it may be retried.
	claimTTL = 2 * time.Minute
)

// idempotentRoutes maps "METHOD path" globs (path.Match syntax) to how long a
// completed response stays replayable.
var idempotentRoutes = map[string]time.Duration{
	"POST /api/v1/orders/checkout":        7 * 24 * time.Hour,
	"PATCH /api/admin/v1/orders/*/status": 24 * time.Hour,
}

func replayWindow(r *http.Request) (time.Duration, bool) {
	target := r.Method + " " + strings.TrimSuffix(r.URL.Path, "/")
	for route, ttl := range idempotentRoutes {
		if ok, _ := path.Match(route, target); ok {
			return ttl, true
		}
	}
	return 0, false
}

const (
	stateRunning = "running"
	stateDone    = "done"
)

type storedResponse struct {
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes the routes in idempotentRoutes safe to retry. The first
// request with a key claims it and runs; once it finishes its response is
// replayed to repeats carrying the same body. A repeat while the first is
// still running, or with a different body, gets 409. A 5xx releases the key.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	g := guard{store: store, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			window, guarded := replayWindow(r)
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, idempotencyHeader+" header required"))
				return
			}
			payload, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))

			key := store.IdempotencyKey(UserIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)
			fp := fingerprint(payload)

			won, err := g.claim(ctx, key, fp)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !won {
				g.answerRepeat(ctx, w, key, fp)
				return
			}

			cw := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r)
			g.settle(ctx, key, fp, cw, window)
		})
	}
}

type guard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

func (g guard) claim(ctx context.Context, key, fp string) (bool, error) {
	marker, err := json.Marshal(storedResponse{State: stateRunning, Fingerprint: fp})
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, string(marker), claimTTL)
}

// settle stores the finished response, or drops the claim after a server error.
func (g guard) settle(ctx context.Context, key, fp string, cw *captureWriter, window time.Duration) {
	status := cw.statusOrOK()
	if status >= http.StatusInternalServerError {
		g.report(ctx, "idempotency.release_failed", g.store.Del(ctx, key))
		return
	}
	encoded, err := json.Marshal(storedResponse{
		State:       stateDone,
		Fingerprint: fp,
		Status:      status,
		ContentType: cw.Header().Get("Content-Type"),
		Body:        cw.buf.Bytes(),
	})
	if err != nil {
		g.report(ctx, "idempotency.encode_failed", err)
		return
	}
	g.report(ctx, "idempotency.persist_failed", g.store.Set(ctx, key, string(encoded), window))
}

func (g guard) answerRepeat(ctx context.Context, w http.ResponseWriter, key, fp string) {
	raw, err := g.store.Get(ctx, key)
	switch {
	case errors.Is(err, redis.Nil):
		// Released between our SetNX and this read.
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is being retried, try again"))
		return
	case err != nil:
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}

	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case prior.Fingerprint != fp:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case prior.State != stateDone:
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress"))
	default:
		if prior.ContentType != "" {
			w.Header().Set("Content-Type", prior.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(prior.Status)
		_, _ = w.Write(prior.Body)
	}
}

func (g guard) report(ctx context.Context, event string, err error) {
	if err != nil && g.logg != nil {
		g.logg.Error(ctx, event, err)
	}
}

func fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// captureWriter tees the response so it can be stored for replay.
type captureWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (c *captureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *captureWriter) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
