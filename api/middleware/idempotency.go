package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/playdepot/playdepot-backend/api/responses"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	pkgredis "github.com/playdepot/playdepot-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	defaultIdempotencyTTL     = 24 * time.Hour
	idempotencyPendingTTL     = 2 * time.Minute
	maxIdempotentRequestBytes = 1 << 20
)

// storedResponse is the Redis value for one idempotency key. A pending entry
// marks a request still being handled.
type storedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

// Idempotency makes the wrapped route safe to retry. Requests must carry an
// Idempotency-Key; the first request for a (user, method, path, key) runs
// the handler and its non-5xx response is replayed for later requests with
// the same body. A different body or a still-running original gets 409.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if logg == nil {
		logg = logger.Nop()
	}
	g := &idempotencyGuard{store: store, ttl: ttl, logg: logg}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(next, w, r)
		})
	}
}

func (g *idempotencyGuard) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if clientKey == "" {
		g.fail(ctx, w, pkgerrors.Validation(IdempotencyKeyHeader+" header required"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentRequestBytes))
	if err != nil {
		g.fail(ctx, w, pkgerrors.Validation("request body too large or unreadable"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	key := g.store.IdempotencyKey(idempotencyScope(r), clientKey)
	fingerprint := fingerprint(body)

	reserved, err := g.reserve(ctx, key, fingerprint)
	if err != nil {
		g.fail(ctx, w, pkgerrors.Dependency(err, "reserve idempotency key"))
		return
	}
	if !reserved {
		g.replay(ctx, w, key, fingerprint)
		return
	}

	var captured bytes.Buffer
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	ww.Tee(&captured)

	// A panicking handler never reaches commit; free the key while the
	// panic unwinds to the recoverer.
	finished := false
	defer func() {
		if !finished {
			g.release(ctx, key)
		}
	}()
	next.ServeHTTP(ww, r)
	finished = true

	g.commit(ctx, key, storedResponse{
		Fingerprint: fingerprint,
		Status:      max(ww.Status(), http.StatusOK),
		ContentType: ww.Header().Get("Content-Type"),
		Body:        captured.Bytes(),
	})
}

func (g *idempotencyGuard) reserve(ctx context.Context, key, fingerprint string) (bool, error) {
	pending, err := json.Marshal(storedResponse{Pending: true, Fingerprint: fingerprint})
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, string(pending), idempotencyPendingTTL)
}

// commit stores the outcome, or frees the key on a server error so the
// client can retry with it.
func (g *idempotencyGuard) commit(ctx context.Context, key string, resp storedResponse) {
	if resp.Status >= http.StatusInternalServerError {
		g.release(ctx, key)
		return
	}
	ctx = context.WithoutCancel(ctx)
	payload, err := json.Marshal(resp)
	if err == nil {
		err = g.store.Set(ctx, key, string(payload), g.ttl)
	}
	if err != nil {
		g.logg.Error(ctx, "persist idempotency record", err)
	}
}

func (g *idempotencyGuard) release(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	if err := g.store.Del(ctx, key); err != nil {
		g.logg.Error(ctx, "release idempotency key", err)
	}
}

func (g *idempotencyGuard) replay(ctx context.Context, w http.ResponseWriter, key, fingerprint string) {
	raw, err := g.store.Get(ctx, key)
	if errors.Is(err, pkgredis.Nil) {
		// released between SetNX and Get
		g.fail(ctx, w, pkgerrors.Idempotency("request with this idempotency key is in progress"))
		return
	}
	if err != nil {
		g.fail(ctx, w, pkgerrors.Dependency(err, "check idempotency"))
		return
	}

	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		g.fail(ctx, w, pkgerrors.Dependency(err, "decode idempotency record"))
		return
	}
	switch {
	case prior.Fingerprint != fingerprint:
		g.fail(ctx, w, pkgerrors.Idempotency("idempotency key reused with different request body"))
	case prior.Pending:
		g.fail(ctx, w, pkgerrors.Idempotency("request with this idempotency key is in progress"))
	default:
		if prior.ContentType != "" {
			w.Header().Set("Content-Type", prior.ContentType)
		}
		w.Header().Set(IdempotentReplayedHeader, "true")
		w.WriteHeader(prior.Status)
		_, _ = w.Write(prior.Body)
	}
}

func (g *idempotencyGuard) fail(ctx context.Context, w http.ResponseWriter, err error) {
	responses.WriteError(ctx, g.logg, w, err)
}

// idempotencyScope keeps keys from colliding across users and routes.
func idempotencyScope(r *http.Request) string {
	return fmt.Sprintf("%d|%s|%s", UserIDFromContext(r.Context()), r.Method, r.URL.Path)
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
