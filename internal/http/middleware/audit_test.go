package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"airg/internal/models"
)

type memoryAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
}

func (s *memoryAuditStore) Create(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *memoryAuditStore) all() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.entries...)
}

func newAuditedRouter(a *Auditor) *gin.Engine {
	r := gin.New()
	r.Use(RequestContext(zerolog.Nop()), a.Handler(), gin.Recovery())
	return r
}

func TestShouldAudit(t *testing.T) {
	a := NewAuditor(&memoryAuditStore{}, zerolog.Nop(), AuditOptions{BasePath: "/v1"})

	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodDelete, "/anything", true},
		{http.MethodPost, "/auth/login", true},
		{http.MethodPatch, "/x", true},
		{http.MethodPut, "/x", true},
		{http.MethodGet, "/documents/123", true},
		{http.MethodGet, "/exports", true},
		{http.MethodGet, "/uploads/sign", true},
		{http.MethodGet, "/themes/rebuild", true},
		{http.MethodGet, "/health", false},
		{http.MethodGet, "/themes", false},
		{http.MethodGet, "/v1/documents", true},
		{http.MethodGet, "/v1/themes/abc", false},
		{http.MethodHead, "/v1/health", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, a.ShouldAudit(tt.method, tt.path))
		})
	}
}

func TestAuditRecordsEntryAfterResponse(t *testing.T) {
	store := &memoryAuditStore{}
	a := NewAuditor(store, zerolog.Nop(), AuditOptions{})

	r := newAuditedRouter(a)
	r.POST("/documents", func(c *gin.Context) {
		c.Header("Content-Length", "11")
		c.String(http.StatusCreated, "hello world")
	})

	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"hash":"abc","password":"hunter2","nested":{"apiToken":"t"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "user-42")
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set("User-Agent", "audit-test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	a.Wait()

	require.Equal(t, http.StatusCreated, w.Code)
	entries := store.all()
	require.Len(t, entries, 1)

	e := entries[0]
	require.Equal(t, "user-42", e.UserID)
	require.Equal(t, "req-1", e.RequestID)
	require.Equal(t, "POST /documents", e.Action)
	require.Equal(t, "/documents", e.Resource)
	require.Equal(t, http.StatusCreated, e.StatusCode)
	require.GreaterOrEqual(t, e.Duration, int64(0))
	require.Equal(t, "audit-test", e.UserAgent)
	require.NotNil(t, e.ResponseSize)
	require.EqualValues(t, 11, *e.ResponseSize)

	require.NotNil(t, e.RequestBody)
	require.Contains(t, *e.RequestBody, `"hash":"abc"`)
	require.NotContains(t, *e.RequestBody, "hunter2")
	require.Contains(t, *e.RequestBody, `"password":"[REDACTED]"`)
	require.Contains(t, *e.RequestBody, `"apiToken":"[REDACTED]"`)
}

func TestAuditHandlerSeesFullBody(t *testing.T) {
	store := &memoryAuditStore{}
	a := NewAuditor(store, zerolog.Nop(), AuditOptions{MaxBodyBytes: 4})

	var got string
	r := newAuditedRouter(a)
	r.POST("/documents", func(c *gin.Context) {
		raw, err := c.GetRawData()
		require.NoError(t, err)
		got = string(raw)
		c.Status(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("0123456789")))
	a.Wait()

	require.Equal(t, "0123456789", got)
	entries := store.all()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].RequestBody)
	require.Equal(t, "0123", *entries[0].RequestBody)
}

func TestAuditRecordsRecoveredPanic(t *testing.T) {
	store := &memoryAuditStore{}
	a := NewAuditor(store, zerolog.Nop(), AuditOptions{})

	r := newAuditedRouter(a)
	r.DELETE("/anything", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/anything", nil))
	a.Wait()

	require.Equal(t, http.StatusInternalServerError, w.Code)
	entries := store.all()
	require.Len(t, entries, 1)
	require.Equal(t, http.StatusInternalServerError, entries[0].StatusCode)
	require.Equal(t, "anonymous", entries[0].UserID)
	require.GreaterOrEqual(t, entries[0].Duration, int64(0))
	require.Nil(t, entries[0].RequestBody)
}

func TestAuditSkipsInsensitiveRequests(t *testing.T) {
	store := &memoryAuditStore{}
	a := NewAuditor(store, zerolog.Nop(), AuditOptions{})

	r := newAuditedRouter(a)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	a.Wait()

	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, store.all())
}

func TestAuditStoreFailureDoesNotAffectResponse(t *testing.T) {
	store := &memoryAuditStore{err: errors.New("database is down")}
	a := NewAuditor(store, zerolog.Nop(), AuditOptions{})

	r := newAuditedRouter(a)
	r.POST("/exports/json", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"accepted": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/exports/json", strings.NewReader(`{}`)))
	a.Wait()

	require.Equal(t, http.StatusAccepted, w.Code)
	require.JSONEq(t, `{"accepted":true}`, w.Body.String())
	require.Empty(t, store.all())
}

func TestAuditDurationNeverNegative(t *testing.T) {
	store := &memoryAuditStore{}
	a := NewAuditor(store, zerolog.Nop(), AuditOptions{})

	// a clock that runs backwards
	calls := 0
	base := time.Now()
	a.now = func() time.Time {
		calls++
		return base.Add(-time.Duration(calls) * time.Second)
	}

	r := newAuditedRouter(a)
	r.PUT("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/x", nil))
	a.Wait()

	entries := store.all()
	require.Len(t, entries, 1)
	require.Equal(t, int64(0), entries[0].Duration)
}

func TestAuditCountsWrittenBytesWithoutContentLength(t *testing.T) {
	store := &memoryAuditStore{}
	a := NewAuditor(store, zerolog.Nop(), AuditOptions{})

	r := newAuditedRouter(a)
	r.POST("/themes/rebuild", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"accepted": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/themes/rebuild", nil))
	a.Wait()

	require.Empty(t, w.Header().Get("Content-Length"))
	entries := store.all()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ResponseSize)
	require.EqualValues(t, w.Body.Len(), *entries[0].ResponseSize)
}

func TestAuditNoBodyHasNoSize(t *testing.T) {
	store := &memoryAuditStore{}
	a := NewAuditor(store, zerolog.Nop(), AuditOptions{})

	r := newAuditedRouter(a)
	r.DELETE("/x", func(c *gin.Context) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/x", nil))
	a.Wait()

	entries := store.all()
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].ResponseSize)
}

func TestContentLength(t *testing.T) {
	h := http.Header{}
	require.Nil(t, contentLength(h))

	h.Set("Content-Length", "abc")
	require.Nil(t, contentLength(h))

	h.Set("Content-Length", "-1")
	require.Nil(t, contentLength(h))

	h.Set("Content-Length", "512")
	require.NotNil(t, contentLength(h))
	require.EqualValues(t, 512, *contentLength(h))
}
