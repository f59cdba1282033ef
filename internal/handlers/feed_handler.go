package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the ranked post feed
type FeedHandler struct {
	feed           *services.FeedService
	userRepository repositories.UserRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService, userRepo repositories.UserRepository) *FeedHandler {
	return &FeedHandler{
		feed:           feed,
		userRepository: userRepo,
	}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// EnrichedPost is a feed item with its author and the viewer's flags
type EnrichedPost struct {
	models.Post
	Author       models.UserCompact `json:"author"`
	IsLiked      bool               `json:"is_liked"`
	IsBookmarked bool               `json:"is_bookmarked"`
}

// GetFeed returns one page of the feed.
// Query: sort=new|oldest|top|hot, cursor, limit, tag, author.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}
	var authorID uint
	if raw := c.QueryParam("author"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid author")
		}
		authorID = uint(n)
	}

	page, err := h.feed.ListFeed(c.Request().Context(), services.FeedQuery{
		Sort:     c.QueryParam("sort"),
		Cursor:   c.QueryParam("cursor"),
		Limit:    limit,
		Tag:      c.QueryParam("tag"),
		AuthorID: authorID,
	})
	if err != nil {
		return httpError(c, err)
	}

	enriched, err := enrichPosts(c.Request().Context(), h.feed, h.userRepository, currentUserID, page.Items)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"posts": enriched,
		},
		"meta": echo.Map{
			"nextCursor":  page.NextCursor,
			"hasNextPage": page.NextCursor != nil,
		},
	})
}

// enrichPosts attaches authors and the viewer's like/bookmark flags
func enrichPosts(ctx context.Context, feed *services.FeedService, users repositories.UserRepository, viewerID uint, posts []models.Post) ([]EnrichedPost, error) {
	postIDs := make([]uint, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]bool, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	authors, err := users.GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, services.InternalError("load authors", err)
	}
	flags, err := feed.Flags(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}

	enriched := make([]EnrichedPost, len(posts))
	for i, p := range posts {
		enriched[i] = EnrichedPost{
			Post:         p,
			IsLiked:      flags.Liked[p.ID],
			IsBookmarked: flags.Bookmarked[p.ID],
		}
		if author, ok := authors[p.AuthorID]; ok {
			enriched[i].Author = author.ToCompact()
		}
	}
	return enriched, nil
}
