package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "userID"

var ErrUnauthorized = errors.New("missing or invalid credentials")

// AuthClaims defines the data carried inside a signed token.
type AuthClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Authenticator is the auth collaborator: it turns a bearer token into
// a verified user identity. Token issuance lives with the auth service;
// GenerateToken exists for that service and for tests.
type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		issuer: "chat-app",
	}
}

// GenerateToken creates a signed JWT for a specific user.
func (a *Authenticator) GenerateToken(userID string, ttl time.Duration) (string, error) {
	claims := &AuthClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    a.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken validates the signature and expiry of a token and returns
// the user identity it carries.
func (a *Authenticator) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", ErrUnauthorized
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrUnauthorized
	}
	return claims.UserID, nil
}

// RequireUser rejects any request without a valid bearer token and
// stores the verified identity on the gin context.
func (a *Authenticator) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "unauthorized",
			})
			return
		}

		userID, err := a.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "unauthorized",
			})
			return
		}

		c.Set(identityKey, userID)
		c.Next()
	}
}

// CurrentUser returns the verified identity stored by RequireUser.
func CurrentUser(c *gin.Context) string {
	return c.GetString(identityKey)
}

// IdentityFromRequest extracts the optional identity from a WebSocket
// handshake. An absent or invalid token yields an empty identity - the
// connection is still accepted, just anonymous.
func (a *Authenticator) IdentityFromRequest(r *http.Request) string {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		return ""
	}

	userID, err := a.ParseToken(tokenString)
	if err != nil {
		return ""
	}
	return userID
}
