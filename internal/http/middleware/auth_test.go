package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charchit19/auth-mindsparkle/internal/domain"
	"github.com/charchit19/auth-mindsparkle/internal/http/middleware"
	"github.com/charchit19/auth-mindsparkle/internal/token"
)

type stubAccountRepo struct {
	accounts map[int64]domain.Account
}

func (s *stubAccountRepo) GetByID(_ context.Context, id int64) (domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *stubAccountRepo) GetByEmail(context.Context, string) (domain.Account, error) {
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *stubAccountRepo) GetByValidResetToken(context.Context, string, time.Time) (domain.Account, error) {
	return domain.Account{}, domain.ErrAccountNotFound
}

func (s *stubAccountRepo) Create(_ context.Context, a domain.Account) (domain.Account, error) {
	return a, nil
}

func (s *stubAccountRepo) Update(_ context.Context, a domain.Account) (domain.Account, error) {
	return a, nil
}

func (s *stubAccountRepo) Delete(context.Context, int64) error { return nil }

func (s *stubAccountRepo) List(context.Context) ([]domain.Account, error) { return nil, nil }

func newGateRouter(t *testing.T) (*gin.Engine, *token.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := token.NewService([]byte("gate-secret"), "auth-test", 0)
	repo := &stubAccountRepo{accounts: map[int64]domain.Account{
		1: {ID: 1, Email: "user@x.com", PasswordHash: "secret-hash"},
		2: {ID: 2, Email: "root@x.com", IsAdmin: true},
	}}
	gate := &middleware.Auth{Tokens: tokens, Accounts: repo}

	router := gin.New()
	router.GET("/me", gate.RequireAuth, func(c *gin.Context) {
		principal, ok := middleware.GetPrincipal(c)
		require.True(t, ok)
		require.Empty(t, principal.PasswordHash)
		c.JSON(http.StatusOK, gin.H{"id": principal.ID})
	})
	router.GET("/admin", gate.RequireAuth, gate.RequireAdmin, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, tokens
}

func doRequest(router *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	router, tokens := newGateRouter(t)

	rec := doRequest(router, "/me", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Not authorized, no token.")

	rec = doRequest(router, "/me", "Basic abc")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, "/me", "Bearer not-a-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Not authorized, token failed.")

	// Valid signature but the account no longer exists.
	gone, err := tokens.IssueSession(999, false)
	require.NoError(t, err)
	rec = doRequest(router, "/me", "Bearer "+gone)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	session, err := tokens.IssueSession(1, false)
	require.NoError(t, err)
	rec = doRequest(router, "/me", "Bearer "+session)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"id":1`)
}

func TestRequireAdmin(t *testing.T) {
	router, tokens := newGateRouter(t)

	session, err := tokens.IssueSession(1, false)
	require.NoError(t, err)
	rec := doRequest(router, "/admin", "Bearer "+session)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Admin privileges required.")

	adminSession, err := tokens.IssueSession(2, true)
	require.NoError(t, err)
	rec = doRequest(router, "/admin", "Bearer "+adminSession)
	require.Equal(t, http.StatusOK, rec.Code)
}
