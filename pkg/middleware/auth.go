package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yanote/notes/backend/go-services/internal/models"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
)

// Context keys set by the auth middlewares.
const (
	ClaimsKey = "claims"
	UserKey   = "user"
	TokenKey  = "token"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "access_token"

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// Revocations reports access tokens revoked before their expiry (logout).
type Revocations interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// UserLookup resolves the subject of a verified token to an account.
type UserLookup interface {
	GetBySub(ctx context.Context, sub string) (*models.User, error)
}

var (
	errNoToken    = errors.New("missing Authorization header")
	errBadHeader  = errors.New("invalid Authorization header")
	errBadClaims  = errors.New("failed to parse claims")
	errRevokedTok = errors.New("token revoked")
)

// RawToken extracts the access token from "Authorization: Bearer <token>" or,
// failing that, from the access token cookie.
func RawToken(c *gin.Context) (string, error) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			return "", errBadHeader
		}
		return token, nil
	}
	if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
		return v, nil
	}
	return "", errNoToken
}

func authenticate(c *gin.Context, ver Verifier, rev Revocations) (map[string]interface{}, string, error) {
	raw, err := RawToken(c)
	if err != nil {
		return nil, "", err
	}
	tok, err := ver.Verify(c.Request.Context(), raw)
	if err != nil {
		return nil, "", fmt.Errorf("invalid token: %w", err)
	}
	if rev != nil {
		revoked, err := rev.IsRevoked(c.Request.Context(), raw)
		if err != nil {
			logger.Warnf("revocation check failed: %v", err)
		}
		if revoked {
			return nil, "", errRevokedTok
		}
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		return nil, "", errBadClaims
	}
	return claims, raw, nil
}

// AuthMiddleware verifies the caller's token and answers 401 JSON when it is missing or invalid.
// rev may be nil.
func AuthMiddleware(ver Verifier, rev Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, raw, err := authenticate(c, ver, rev)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, raw)
		c.Next()
	}
}

// LoginRequired is the browser-facing guard: anonymous or unknown callers are
// redirected to loginPath with the original URI in "next", and the handler never runs.
func LoginRequired(ver Verifier, rev Revocations, users UserLookup, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, raw, err := authenticate(c, ver, rev)
		if err != nil {
			redirectToLogin(c, loginPath)
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			redirectToLogin(c, loginPath)
			return
		}
		u, err := users.GetBySub(c.Request.Context(), sub)
		if err != nil {
			logger.Errorf("user lookup for %s failed: %v", sub, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
			return
		}
		if u == nil {
			redirectToLogin(c, loginPath)
			return
		}
		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, raw)
		c.Set(UserKey, u)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context, loginPath string) {
	c.Redirect(http.StatusFound, loginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}

// CurrentUser returns the account set by LoginRequired.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
