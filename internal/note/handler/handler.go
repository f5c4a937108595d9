package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanote/notes/backend/go-services/internal/note"
	"github.com/yanote/notes/backend/go-services/internal/note/service"
	"github.com/yanote/notes/backend/go-services/pkg/logger"
	"github.com/yanote/notes/backend/go-services/pkg/middleware"
)

// Paths of the pages that other handlers redirect to.
const (
	ListPath    = "/notes/"
	SuccessPath = "/done/"
)

type noteHandler struct {
	svc service.Service
}

// RegisterNoteRoutes mounts the note pages. Every route runs behind requireLogin, so the
// handlers below always have a current user.
func RegisterNoteRoutes(r gin.IRouter, svc service.Service, requireLogin gin.HandlerFunc) {
	note.RegisterValidators()
	h := &noteHandler{svc: svc}

	g := r.Group("", requireLogin)
	g.GET(ListPath, h.list)
	g.GET("/add/", h.addForm)
	g.POST("/add/", h.add)
	g.GET("/note/:slug/", h.detail)
	g.GET("/edit/:slug/", h.editForm)
	g.POST("/edit/:slug/", h.edit)
	g.GET("/delete/:slug/", h.confirmDelete)
	g.POST("/delete/:slug/", h.delete)
	g.DELETE("/delete/:slug/", h.delete)
	g.POST("/export/:slug/", h.export)
	g.GET(SuccessPath, h.done)
}

func authorID(c *gin.Context) string {
	if u, ok := middleware.CurrentUser(c); ok {
		return u.ID
	}
	return ""
}

func (h *noteHandler) list(c *gin.Context) {
	notes, err := h.svc.List(c.Request.Context(), authorID(c))
	if err != nil {
		internalError(c, "list notes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"object_list": notes})
}

func (h *noteHandler) addForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"form": note.Form{}, "errors": gin.H{}})
}

func (h *noteHandler) add(c *gin.Context) {
	var f note.Form
	if err := c.ShouldBind(&f); err != nil {
		formError(c, f, note.FieldErrors(err))
		return
	}
	if _, err := h.svc.Create(c.Request.Context(), authorID(c), f); err != nil {
		h.saveError(c, f, err)
		return
	}
	c.Redirect(http.StatusFound, SuccessPath)
}

func (h *noteHandler) detail(c *gin.Context) {
	n, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": n})
}

func (h *noteHandler) editForm(c *gin.Context) {
	n, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": note.FormFor(n), "errors": gin.H{}, "note": n})
}

func (h *noteHandler) edit(c *gin.Context) {
	// ownership is checked before the body is looked at
	if _, ok := h.lookup(c); !ok {
		return
	}
	var f note.Form
	if err := c.ShouldBind(&f); err != nil {
		formError(c, f, note.FieldErrors(err))
		return
	}
	if _, err := h.svc.Update(c.Request.Context(), authorID(c), c.Param("slug"), f); err != nil {
		h.saveError(c, f, err)
		return
	}
	c.Redirect(http.StatusFound, SuccessPath)
}

func (h *noteHandler) confirmDelete(c *gin.Context) {
	n, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": n})
}

func (h *noteHandler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), authorID(c), c.Param("slug"))
	switch {
	case errors.Is(err, note.ErrNotFound):
		notFound(c)
	case err != nil:
		internalError(c, "delete note", err)
	default:
		c.Redirect(http.StatusFound, SuccessPath)
	}
}

func (h *noteHandler) export(c *gin.Context) {
	url, err := h.svc.Export(c.Request.Context(), authorID(c), c.Param("slug"))
	switch {
	case errors.Is(err, note.ErrNotFound):
		notFound(c)
	case errors.Is(err, service.ErrExportUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		internalError(c, "export note", err)
	default:
		c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(service.ExportURLTTL.Seconds())})
	}
}

func (h *noteHandler) done(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Success!", "next": ListPath})
}

// lookup loads the :slug note of the current user, answering 404 for anything else.
func (h *noteHandler) lookup(c *gin.Context) (*note.Note, bool) {
	n, err := h.svc.GetForAuthor(c.Request.Context(), authorID(c), c.Param("slug"))
	switch {
	case errors.Is(err, note.ErrNotFound):
		notFound(c)
		return nil, false
	case err != nil:
		internalError(c, "get note", err)
		return nil, false
	}
	return n, true
}

func (h *noteHandler) saveError(c *gin.Context, f note.Form, err error) {
	switch {
	case errors.Is(err, note.ErrSlugTaken):
		title := strings.TrimSpace(f.Title)
		if title == "" {
			title = note.DefaultTitle
		}
		slug, _ := note.ResolveSlug(title, f.Slug)
		formError(c, f, map[string]string{"slug": slug + note.SlugTakenMessage})
	case errors.Is(err, note.ErrEmptySlug):
		formError(c, f, map[string]string{"slug": "Could not build a slug from the title; enter one."})
	case errors.Is(err, note.ErrNotFound):
		notFound(c)
	default:
		internalError(c, "save note", err)
	}
}

func formError(c *gin.Context, f note.Form, errs map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"form": f, "errors": errs})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func internalError(c *gin.Context, op string, err error) {
	logger.Errorf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
