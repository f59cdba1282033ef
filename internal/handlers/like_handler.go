package handlers

import (
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like and report toggles on posts and comments
type LikeHandler struct {
	interactions *services.InteractionService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(interactions *services.InteractionService) *LikeHandler {
	return &LikeHandler{interactions: interactions}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.POST("/comments/:id/likes", h.LikeComment)
	g.DELETE("/comments/:id/likes", h.UnlikeComment)
	g.POST("/posts/:post_id/reports", h.ReportPost)
	g.DELETE("/posts/:post_id/reports", h.WithdrawReport)
}

// LikePost likes a post. Liking twice is a no-op.
func (h *LikeHandler) LikePost(c echo.Context) error {
	return toggle(c, h.interactions, models.KindLikePost, "post_id", "post", true)
}

func (h *LikeHandler) UnlikePost(c echo.Context) error {
	return toggle(c, h.interactions, models.KindLikePost, "post_id", "post", false)
}

func (h *LikeHandler) LikeComment(c echo.Context) error {
	return toggle(c, h.interactions, models.KindLikeComment, "id", "comment", true)
}

func (h *LikeHandler) UnlikeComment(c echo.Context) error {
	return toggle(c, h.interactions, models.KindLikeComment, "id", "comment", false)
}

// ReportPost flags a post; enough reports drop it from the feed
func (h *LikeHandler) ReportPost(c echo.Context) error {
	return toggle(c, h.interactions, models.KindReportPost, "post_id", "post", true)
}

func (h *LikeHandler) WithdrawReport(c echo.Context) error {
	return toggle(c, h.interactions, models.KindReportPost, "post_id", "post", false)
}
