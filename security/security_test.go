package security

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"queue-system/internal/status"
)

func newTestEvent(req *http.Request) (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return &core.RequestEvent{Event: router.Event{Response: rec, Request: req}}, rec
}

func setupTestAuth(t *testing.T) (*OperatorAuth, redismock.ClientMock) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	auth, err := newOperatorAuth(client, "Ug1234", time.Hour, bcrypt.MinCost)
	require.NoError(t, err)
	auth.newToken = func() (string, error) { return "tok123", nil }

	return auth, mock
}

func TestOperatorAuth_RejectsEmptyPassphrase(t *testing.T) {
	client, _ := redismock.NewClientMock()
	_, err := NewOperatorAuth(client, "", time.Hour)
	assert.Error(t, err)
}

func TestOperatorAuth_Login(t *testing.T) {
	auth, mock := setupTestAuth(t)
	ctx := context.Background()

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := auth.Login(ctx, "nope")
		assert.ErrorIs(t, err, status.ErrOperatorUnauthorized)
	})

	t.Run("stores session with ttl", func(t *testing.T) {
		mock.ExpectSet("operator:session:tok123", "1", time.Hour).SetVal("OK")

		token, err := auth.Login(ctx, "Ug1234")
		require.NoError(t, err)
		assert.Equal(t, "tok123", token)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis failure", func(t *testing.T) {
		mock.ExpectSet("operator:session:tok123", "1", time.Hour).SetErr(errors.New("down"))

		_, err := auth.Login(ctx, "Ug1234")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, status.ErrOperatorUnauthorized)
	})
}

func TestOperatorAuth_AuthorizedAndLogout(t *testing.T) {
	auth, mock := setupTestAuth(t)
	ctx := context.Background()

	ok, err := auth.Authorized(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExists("operator:session:tok123").SetVal(1)
	ok, err = auth.Authorized(ctx, "tok123")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectDel("operator:session:tok123").SetVal(1)
	require.NoError(t, auth.Logout(ctx, "tok123"))

	mock.ExpectExists("operator:session:tok123").SetVal(0)
	ok, err = auth.Authorized(ctx, "tok123")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperatorToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, OperatorToken(req))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", OperatorToken(req))

	req.Header.Set(OperatorTokenHeader, "xyz")
	assert.Equal(t, "xyz", OperatorToken(req))
}

func TestRequireOperator(t *testing.T) {
	auth, mock := setupTestAuth(t)
	middleware := auth.RequireOperator()

	t.Run("missing token", func(t *testing.T) {
		e, _ := newTestEvent(httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))

		err := middleware(e)
		var apiErr *router.ApiError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	})

	t.Run("live session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
		req.Header.Set(OperatorTokenHeader, "tok123")
		e, _ := newTestEvent(req)
		mock.ExpectExists("operator:session:tok123").SetVal(1)

		assert.NoError(t, middleware(e))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis unavailable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
		req.Header.Set(OperatorTokenHeader, "tok123")
		e, rec := newTestEvent(req)
		mock.ExpectExists("operator:session:tok123").SetErr(errors.New("down"))

		require.NoError(t, middleware(e))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

// expectWindowIncr expects one INCR + EXPIRE NX transaction.
func expectWindowIncr(mock redismock.ClientMock, key string, count int64, ttlSet bool) {
	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(count)
	mock.ExpectExpireNX(key, time.Minute).SetVal(ttlSet)
	mock.ExpectTxPipelineExec()
}

func TestRateLimiter_Allow(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client, 2, time.Minute)
	ctx := context.Background()

	expectWindowIncr(mock, "ratelimit:tickets:10.0.0.1", 1, true)
	expectWindowIncr(mock, "ratelimit:tickets:10.0.0.1", 2, false)
	expectWindowIncr(mock, "ratelimit:tickets:10.0.0.1", 3, false)

	for i, want := range []bool{true, true, false} {
		allowed, err := limiter.Allow(ctx, "tickets", "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "request %d", i+1)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_DisabledWhenLimitIsZero(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client, 0, time.Minute)

	allowed, err := limiter.Allow(context.Background(), "tickets", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRateLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	middleware := NewRateLimiter(client, 1, time.Minute).TicketRateLimit()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/pay-fees/tickets", nil)
	req.RemoteAddr = "10.0.0.2:5555"

	expectWindowIncr(mock, "ratelimit:tickets:10.0.0.2", 2, false)
	e, rec := newTestEvent(req)
	require.NoError(t, middleware(e))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	mock.ExpectTxPipeline()
	mock.ExpectIncr("ratelimit:tickets:10.0.0.2").SetErr(errors.New("down"))
	mock.ExpectExpireNX("ratelimit:tickets:10.0.0.2", time.Minute).SetErr(errors.New("down"))
	mock.ExpectTxPipelineExec()
	e, rec = newTestEvent(req)
	require.NoError(t, middleware(e))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_TTLIsSetWithEveryIncrement(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client, 5, time.Minute)
	ctx := context.Background()

	// A counter left without a TTL gets one on its next increment.
	expectWindowIncr(mock, "ratelimit:tickets:10.0.0.3", 4, true)

	allowed, err := limiter.Allow(ctx, "tickets", "10.0.0.3")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAntiBotMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		wantCode  int
	}{
		{"browser", "Mozilla/5.0 (X11; Linux x86_64)", http.StatusOK},
		{"crawler", "SomeCrawler/1.0", http.StatusForbidden},
		{"bot", "Googlebot/2.1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("User-Agent", tt.userAgent)
			e, rec := newTestEvent(req)

			require.NoError(t, AntiBotMiddleware()(e))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
