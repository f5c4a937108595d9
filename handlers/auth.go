package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/yanote/notes/backend/go-services/internal/config"
	"github.com/yanote/notes/backend/go-services/internal/oidc"
	"github.com/yanote/notes/backend/go-services/internal/sessions"
	"github.com/yanote/notes/backend/go-services/internal/tokens"
	"github.com/yanote/notes/backend/go-services/internal/users"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
	"github.com/yanote/notes/backend/go-services/pkg/middleware"
)

// Login modes.
const (
	ModePassword = "password"
	ModeAuthCode = "auth_code"
)

// LoginRequest is accepted as JSON or as a form post.
type LoginRequest struct {
	Mode        string `json:"mode" form:"mode" binding:"required,oneof=password auth_code"`
	Username    string `json:"username" form:"username"`
	Password    string `json:"password" form:"password"`
	Code        string `json:"code" form:"code"`
	RedirectURI string `json:"redirect_uri" form:"redirect_uri"`
	Next        string `json:"next" form:"next"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" binding:"required"`
}

var errNoIDToken = errors.New("token response has no id_token")

// AuthHandler exchanges Keycloak credentials for the service's own tokens.
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	idVerifier  middleware.Verifier
	access      *tokens.Verifier
	blacklist   *sessions.Blacklist
}

// NewAuthHandler wires the auth endpoints. idVerifier checks the id_token returned by Keycloak;
// blacklist may be nil, in which case logout only drops the refresh session.
func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, idVerifier middleware.Verifier, blacklist *sessions.Blacklist) *AuthHandler {
	return &AuthHandler{
		cfg:         cfg,
		usersSvc:    u,
		sessionsSvc: s,
		idVerifier:  idVerifier,
		access:      tokens.NewVerifier(cfg.JWT.Secret),
		blacklist:   blacklist,
	}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg gin.IRouter) {
	a := rg.Group("/auth")
	a.GET("/login", h.LoginPage)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// LoginPage is where anonymous browsers land. It describes the login form and echoes "next".
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":  gin.H{"fields": []string{"mode", "username", "password", "code", "redirect_uri", "next"}},
		"modes": []string{ModePassword, ModeAuthCode},
		"next":  safeNext(c.Query("next")),
	})
}

// Login runs the password grant or the authorization-code exchange against Keycloak,
// upserts the user from the id token and issues an access token and a refresh session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.cfg.Keycloak.URL == "" || h.cfg.Keycloak.Realm == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Keycloak not configured"})
		return
	}

	ctx := c.Request.Context()
	var (
		tok *oauth2.Token
		err error
	)
	switch req.Mode {
	case ModePassword:
		tok, err = h.oauthConfig("").PasswordCredentialsToken(ctx, req.Username, req.Password)
	case ModeAuthCode:
		if req.Code == "" || req.RedirectURI == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code and redirect_uri required for auth_code mode"})
			return
		}
		logger.Debugf("Login(auth_code): code length=%d redirect_uri=%s", len(req.Code), req.RedirectURI)
		tok, err = h.oauthConfig(req.RedirectURI).Exchange(ctx, req.Code)
	}
	if err != nil {
		logger.Warnf("token exchange (%s) failed: %v", req.Mode, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed", "details": err.Error()})
		return
	}

	claims, err := h.verifyIDToken(ctx, tok)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token", "details": err.Error()})
		return
	}
	u, err := h.usersSvc.UpsertFromClaims(ctx, claims)
	if err != nil || u == nil {
		logger.Errorf("user upsert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user upsert failed"})
		return
	}
	rft, err := h.sessionsSvc.CreateSession(ctx, u.Sub, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	h.setAccessCookie(c, access)
	logger.Infof("login: sub=%s mode=%s", u.Sub, req.Mode)
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": rft,
		"user":         u,
		"expiresIn":    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
		"next":         safeNext(req.Next),
	})
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		logger.Errorf("refresh validation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	u, err := h.usersSvc.GetBySub(c.Request.Context(), sess.Sub)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	if u == nil {
		// account deleted after the session was issued
		_ = h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	h.setAccessCookie(c, access)
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout drops the refresh session and revokes the caller's access token until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if raw, err := middleware.RawToken(c); err == nil {
		if exp, err := h.access.ExpiresAt(ctx, raw); err == nil {
			if err := h.blacklist.Revoke(ctx, raw, time.Until(exp)); err != nil {
				logger.Errorf("failed to revoke access token: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke access token"})
				return
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(ctx, req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	clearAccessCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) oauthConfig(redirectURI string) *oauth2.Config {
	kc := h.cfg.Keycloak
	return &oauth2.Config{
		ClientID:     kc.ClientID,
		ClientSecret: kc.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(kc.URL, "/") + "/realms/" + kc.Realm + "/protocol/openid-connect/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (h *AuthHandler) verifyIDToken(ctx context.Context, tok *oauth2.Token) (map[string]interface{}, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, errNoIDToken
	}
	if h.idVerifier == nil {
		return nil, fmt.Errorf("no id token verifier configured")
	}
	return oidc.VerifyClaims(ctx, h.idVerifier, raw)
}

func (h *AuthHandler) setAccessCookie(c *gin.Context, access string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, access, int(h.cfg.JWT.AccessTokenTTL.Seconds()), "/", "", h.cfg.Server.Environment == "production", true)
}

func clearAccessCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
}

// safeNext keeps only local absolute paths so "next" cannot send the browser off-site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
