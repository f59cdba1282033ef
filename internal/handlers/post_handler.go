package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/richtext"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts          *services.PostService
	feed           *services.FeedService
	userRepository repositories.UserRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService, feed *services.FeedService, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		posts:          posts,
		feed:           feed,
		userRepository: userRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:post_id", h.GetPost)
	g.POST("/posts/:post_id/publish", h.PublishPost)
	g.DELETE("/posts/:post_id", h.DeletePost)
}

// PostDetail is a single post with its rich body
type PostDetail struct {
	EnrichedPost
	Body richtext.Node `json:"body"`
}

// CreatePost creates a draft, or a published post when "publish" is set
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.posts.Create(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID together with its body
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := parseIDParam(c, "post_id", "post")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	currentUserID := getUserIDFromContext(c)

	post, err := h.feed.GetPost(ctx, currentUserID, postID)
	if err != nil {
		return httpError(c, err)
	}
	body, err := h.posts.Body(ctx, postID)
	if err != nil {
		return httpError(c, err)
	}
	enriched, err := enrichPosts(ctx, h.feed, h.userRepository, currentUserID, []models.Post{*post})
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, PostDetail{EnrichedPost: enriched[0], Body: body})
}

// PublishPost publishes a draft. Publishing twice succeeds without a second broadcast.
func (h *PostHandler) PublishPost(c echo.Context) error {
	postID, err := parseIDParam(c, "post_id", "post")
	if err != nil {
		return err
	}

	post, err := h.posts.Publish(c.Request().Context(), getUserIDFromContext(c), postID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost soft deletes a post owned by the current user
func (h *PostHandler) DeletePost(c echo.Context) error {
	postID, err := parseIDParam(c, "post_id", "post")
	if err != nil {
		return err
	}

	if err := h.posts.Delete(c.Request().Context(), getUserIDFromContext(c), postID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}
