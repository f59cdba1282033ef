package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// FollowHandler handles follow/unfollow HTTP requests for users and tags
type FollowHandler struct {
	interactions   *services.InteractionService
	userRepository repositories.UserRepository
	tagRepository  repositories.TagRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(interactions *services.InteractionService, userRepo repositories.UserRepository, tagRepo repositories.TagRepository) *FollowHandler {
	return &FollowHandler{
		interactions:   interactions,
		userRepository: userRepo,
		tagRepository:  tagRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.POST("/tags/:name/follow", h.FollowTag)
	g.DELETE("/tags/:name/follow", h.UnfollowTag)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	return toggle(c, h.interactions, models.KindFollowUser, "id", "user", true)
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	return toggle(c, h.interactions, models.KindFollowUser, "id", "user", false)
}

// FollowTag follows a tag by name
func (h *FollowHandler) FollowTag(c echo.Context) error {
	return h.toggleTag(c, true)
}

func (h *FollowHandler) UnfollowTag(c echo.Context) error {
	return h.toggleTag(c, false)
}

func (h *FollowHandler) toggleTag(c echo.Context, on bool) error {
	name := strings.ToLower(strings.TrimSpace(c.Param("name")))
	tag, err := h.tagRepository.GetTagByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Tag not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tag")
	}

	return toggleTarget(c, h.interactions, tag.ID, models.KindFollowTag, on)
}

// GetFollowers lists the compact profiles following a user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}

	ids, err := h.interactions.Followers(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	users, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load followers")
	}

	followers := make([]models.UserCompact, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			followers = append(followers, u.ToCompact())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    followers,
	})
}
