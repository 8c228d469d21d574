package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(a *Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", a.RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "userId": CurrentUser(c)})
	})
	return router
}

func TestToken_Roundtrip(t *testing.T) {
	req := require.New(t)
	a := NewAuthenticator("test-secret")

	token, err := a.GenerateToken("u1", time.Hour)
	req.NoError(err)

	userID, err := a.ParseToken(token)
	req.NoError(err)
	req.Equal("u1", userID)
}

func TestParseToken_RejectsGarbageAndWrongKey(t *testing.T) {
	req := require.New(t)
	a := NewAuthenticator("test-secret")

	_, err := a.ParseToken("not-a-token")
	req.ErrorIs(err, ErrUnauthorized)

	other := NewAuthenticator("different-secret")
	token, err := other.GenerateToken("u1", time.Hour)
	req.NoError(err)

	_, err = a.ParseToken(token)
	req.ErrorIs(err, ErrUnauthorized)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	req := require.New(t)
	a := NewAuthenticator("test-secret")

	token, err := a.GenerateToken("u1", -time.Minute)
	req.NoError(err)

	_, err = a.ParseToken(token)
	req.ErrorIs(err, ErrUnauthorized)
}

func TestRequireUser_MissingHeader(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(NewAuthenticator("test-secret"))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, r)

	req.Equal(http.StatusUnauthorized, w.Code)
	req.JSONEq(`{"success":false,"message":"unauthorized"}`, w.Body.String())
}

func TestRequireUser_ValidToken(t *testing.T) {
	req := require.New(t)
	a := NewAuthenticator("test-secret")
	router := newTestRouter(a)

	token, err := a.GenerateToken("u1", time.Hour)
	req.NoError(err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.Contains(w.Body.String(), `"userId":"u1"`)
}

func TestIdentityFromRequest(t *testing.T) {
	req := require.New(t)
	a := NewAuthenticator("test-secret")

	token, err := a.GenerateToken("u1", time.Hour)
	req.NoError(err)

	r := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	req.Equal("u1", a.IdentityFromRequest(r))

	// absent or invalid tokens degrade to anonymous, not to an error
	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Equal("", a.IdentityFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/ws?token=bogus", nil)
	req.Equal("", a.IdentityFromRequest(r))
}
