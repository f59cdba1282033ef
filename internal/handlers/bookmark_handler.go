package handlers

import (
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
)

// BookmarkHandler handles saving posts for later
type BookmarkHandler struct {
	interactions *services.InteractionService
}

// NewBookmarkHandler creates a new BookmarkHandler
func NewBookmarkHandler(interactions *services.InteractionService) *BookmarkHandler {
	return &BookmarkHandler{interactions: interactions}
}

// RegisterBookmarkRoutes registers bookmark routes
func (h *BookmarkHandler) RegisterBookmarkRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/bookmarks", h.BookmarkPost)
	g.DELETE("/posts/:post_id/bookmarks", h.RemoveBookmark)
}

// BookmarkPost saves a post for the current user
func (h *BookmarkHandler) BookmarkPost(c echo.Context) error {
	return toggle(c, h.interactions, models.KindBookmarkPost, "post_id", "post", true)
}

// RemoveBookmark unsaves a post
func (h *BookmarkHandler) RemoveBookmark(c echo.Context) error {
	return toggle(c, h.interactions, models.KindBookmarkPost, "post_id", "post", false)
}
