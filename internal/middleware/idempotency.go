package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"paygateway/internal/metrics"
	"paygateway/internal/models"
)

// Deduper remembers request keys for a while.
type Deduper interface {
	// Seen claims key and reports whether it was already claimed.
	Seen(ctx context.Context, key string) (bool, error)
	// Release drops a claim so the key can be used again.
	Release(ctx context.Context, key string) error
}

type redisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+":"+key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

func (d *redisDeduper) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.prefix+":"+key).Err()
}

type memoryDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
	nextGC time.Time
}

func newMemoryDeduper(ttl time.Duration) *memoryDeduper {
	now := time.Now()
	return &memoryDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
		nextGC: now.Add(ttl),
	}
}

func (d *memoryDeduper) Seen(_ context.Context, key string) (bool, error) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[key]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[key] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for k, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, k)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

func (d *memoryDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
	return nil
}

// NewDeduper builds a Redis deduper and falls back to in-memory on failure.
func NewDeduper(addr, pass string, db int, ttl time.Duration) (Deduper, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if addr == "" {
		return newMemoryDeduper(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryDeduper(ttl), err
	}

	return &redisDeduper{
		client: client,
		prefix: "paygw:txn",
		ttl:    ttl,
	}, nil
}

// Idempotency rejects a second transaction with the same project and
// client_reference_code while the first claim is live. Claims of requests
// that did not succeed are released so the client can retry.
func Idempotency(deduper Deduper, m *metrics.GatewayMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deduper == nil {
				return next(c)
			}

			req := c.Request()
			if req.Body == nil {
				return next(c)
			}
			rawBody, err := io.ReadAll(req.Body)
			if err != nil {
				return next(c)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(rawBody))

			code := clientReferenceCode(rawBody)
			if code == "" {
				return next(c)
			}
			key := c.Param("project_id") + ":" + code

			duplicate, err := deduper.Seen(req.Context(), key)
			if err != nil {
				return next(c)
			}
			if duplicate {
				m.RecordDuplicate()
				resp := &models.TransactionResponse{Result: models.ResultError, ClientReferenceCode: code}
				return errorEnvelope(c, http.StatusBadRequest,
					fmt.Sprintf("Duplicate request for client_reference_code `%s`.", code), resp)
			}

			err = next(c)
			if err != nil || c.Response().Status != http.StatusOK {
				_ = deduper.Release(context.WithoutCancel(req.Context()), key)
			}
			return err
		}
	}
}

func clientReferenceCode(raw []byte) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload struct {
		ClientReferenceCode any `json:"client_reference_code"`
	}
	if err := dec.Decode(&payload); err != nil {
		return ""
	}
	switch v := payload.ClientReferenceCode.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
