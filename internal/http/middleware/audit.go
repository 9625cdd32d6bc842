package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"airg/internal/models"
	"airg/internal/reqctx"
)

const (
	anonymousActor = "anonymous"
	redacted       = "[REDACTED]"
)

// DefaultSensitivePrefixes are audited whatever the method.
var DefaultSensitivePrefixes = []string{"/uploads", "/themes/rebuild", "/exports", "/documents"}

// AuditStore persists one entry. repository.Repository[models.AuditLog]
// satisfies it.
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

type AuditOptions struct {
	// SensitivePrefixes are matched after BasePath is stripped.
	SensitivePrefixes []string
	BasePath          string
	MaxBodyBytes      int
	WriteTimeout      time.Duration
}

// Auditor records sensitive requests after the response is complete. Writes
// are best effort: they run detached from the request and failures are only
// logged.
type Auditor struct {
	store    AuditStore
	logger   zerolog.Logger
	prefixes []string
	basePath string
	maxBody  int
	timeout  time.Duration
	now      func() time.Time

	pending sync.WaitGroup
}

func NewAuditor(store AuditStore, logger zerolog.Logger, opts AuditOptions) *Auditor {
	if opts.SensitivePrefixes == nil {
		opts.SensitivePrefixes = DefaultSensitivePrefixes
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Auditor{
		store:    store,
		logger:   logger,
		prefixes: opts.SensitivePrefixes,
		basePath: strings.TrimSuffix(opts.BasePath, "/"),
		maxBody:  opts.MaxBodyBytes,
		timeout:  opts.WriteTimeout,
		now:      time.Now,
	}
}

// ShouldAudit is the union of "mutating verb" and "sensitive path".
func (a *Auditor) ShouldAudit(method, path string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}

	if a.basePath != "" {
		if trimmed := strings.TrimPrefix(path, a.basePath); trimmed != path && strings.HasPrefix(trimmed, "/") {
			path = trimmed
		}
	}
	for _, prefix := range a.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Handler must sit outside gin.Recovery so recovered panics are recorded
// with the status that was actually sent.
func (a *Auditor) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := a.now()
		method := c.Request.Method
		path := c.Request.URL.Path

		if !a.ShouldAudit(method, path) {
			c.Next()
			return
		}

		body := a.snapshotBody(c.Request)

		c.Next()

		duration := a.now().Sub(start).Milliseconds()
		if duration < 0 {
			duration = 0
		}

		actor := c.Request.Header.Get("X-User-Id")
		if actor == "" {
			actor = anonymousActor
		}

		entry := models.AuditLog{
			UserID:       actor,
			RequestID:    reqctx.RequestID(c.Request.Context()),
			Action:       method + " " + path,
			Resource:     path,
			StatusCode:   c.Writer.Status(),
			Duration:     duration,
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			RequestBody:  body,
			ResponseSize: responseSize(c.Writer),
		}

		ctx := context.WithoutCancel(c.Request.Context())
		a.pending.Add(1)
		go a.write(ctx, entry)
	}
}

// Wait blocks until every scheduled write has finished.
func (a *Auditor) Wait() { a.pending.Wait() }

func (a *Auditor) write(ctx context.Context, entry models.AuditLog) {
	defer a.pending.Done()

	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &a.logger
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("action", entry.Action).Msg("audit logging failed")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.store.Create(ctx, &entry); err != nil {
		logger.Error().Err(err).Str("action", entry.Action).Msg("audit logging failed")
	}
}

// snapshotBody reads at most maxBody bytes and puts them back in front of
// whatever is left so the handler sees the full body.
func (a *Auditor) snapshotBody(r *http.Request) *string {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, int64(a.maxBody)))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
	if err != nil || len(buf) == 0 {
		return nil
	}

	snapshot := redactJSON(buf)
	return &snapshot
}

func redactJSON(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.Marshal(redactValue(v))
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if isSecretKey(k) {
				t[k] = redacted
				continue
			}
			t[k] = redactValue(val)
		}
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
	}
	return v
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	return strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}

// responseSize prefers an explicit Content-Length and falls back to the bytes
// gin counted on the writer. It is nil when nothing was written.
func responseSize(w gin.ResponseWriter) *int64 {
	if n := contentLength(w.Header()); n != nil {
		return n
	}
	if w.Size() < 0 {
		return nil
	}
	n := int64(w.Size())
	return &n
}

func contentLength(h http.Header) *int64 {
	v := h.Get("Content-Length")
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
