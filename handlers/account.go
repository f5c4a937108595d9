package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanote/notes/backend/go-services/internal/users"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
	"github.com/yanote/notes/backend/go-services/pkg/middleware"
)

// AccountHandler serves the signed-in user's own account.
type AccountHandler struct {
	usersSvc *users.Service
}

func NewAccountHandler(u *users.Service) *AccountHandler {
	return &AccountHandler{usersSvc: u}
}

// Register mounts /api/v1/me behind requireLogin.
func (h *AccountHandler) Register(rg gin.IRouter, requireLogin gin.HandlerFunc) {
	me := rg.Group("/api/v1/me", requireLogin)
	me.GET("", h.Get)
	me.DELETE("", h.Delete)
}

func (h *AccountHandler) Get(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// Delete removes the account together with all of its notes.
func (h *AccountHandler) Delete(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	if err := h.usersSvc.Delete(c.Request.Context(), u); err != nil {
		logger.Errorf("account delete %s failed: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account delete failed"})
		return
	}
	logger.Infof("account deleted: %s", u.ID)
	clearAccessCookie(c)
	c.Status(http.StatusNoContent)
}
