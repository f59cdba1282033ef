package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/repositories"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications  *services.NotificationService
	userRepository repositories.UserRepository
	now            func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notifications:  notifications,
		userRepository: userRepo,
		now:            time.Now,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

func (h *NotificationHandler) enrichNotifications(notifications []models.Notification) ([]EnrichedNotification, error) {
	actorIDs := make([]uint, 0, len(notifications))
	for _, n := range notifications {
		actorIDs = append(actorIDs, n.Activity.ActorID)
	}
	actors, err := h.userRepository.GetUsersByIDs(actorIDs)
	if err != nil {
		return nil, services.InternalError("load actors", err)
	}

	enriched := make([]EnrichedNotification, len(notifications))
	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if actor, ok := actors[n.Activity.ActorID]; ok {
			enriched[i].Actor = actor.ToCompact()
		}
	}
	return enriched, nil
}

func (h *NotificationHandler) page(c echo.Context) ([]EnrichedNotification, *string, error) {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}
	includeRead, _ := strconv.ParseBool(c.QueryParam("include_read"))

	page, err := h.notifications.List(c.Request().Context(), services.NotificationQuery{
		RecipientID: getUserIDFromContext(c),
		IncludeRead: includeRead,
		Cursor:      c.QueryParam("cursor"),
		Limit:       limit,
	})
	if err != nil {
		return nil, nil, httpError(c, err)
	}
	enriched, err := h.enrichNotifications(page.Items)
	if err != nil {
		return nil, nil, httpError(c, err)
	}
	return enriched, page.NextCursor, nil
}

// GetNotifications returns one page of the current user's notifications, newest first.
// Query: cursor, limit, include_read.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	enriched, next, err := h.page(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": enriched,
		},
		"meta": echo.Map{
			"nextCursor":  next,
			"hasNextPage": next != nil,
		},
	})
}

// GetGroupedNotifications returns one page bucketed by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	enriched, next, err := h.page(c)
	if err != nil {
		return err
	}

	now := h.now().UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfYesterday := startOfToday.AddDate(0, 0, -1)
	startOfWeek := startOfToday.AddDate(0, 0, -7)

	groups := map[string][]EnrichedNotification{
		"today":     {},
		"yesterday": {},
		"thisWeek":  {},
		"older":     {},
	}
	for _, n := range enriched {
		switch at := n.CreatedAt; {
		case !at.Before(startOfToday):
			groups["today"] = append(groups["today"], n)
		case !at.Before(startOfYesterday):
			groups["yesterday"] = append(groups["yesterday"], n)
		case !at.Before(startOfWeek):
			groups["thisWeek"] = append(groups["thisWeek"], n)
		default:
			groups["older"] = append(groups["older"], n)
		}
	}

	unreadCount, err := h.notifications.UnreadCount(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": groups,
			"unreadCount":   unreadCount,
		},
		"meta": echo.Map{
			"nextCursor":  next,
			"hasNextPage": next != nil,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	count, err := h.notifications.UnreadCount(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notifID, err := parseIDParam(c, "id", "notification")
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Request().Context(), getUserIDFromContext(c), notifID); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Notification marked as read"})
}

// MarkAllAsRead marks every unread notification of the current user as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	updated, err := h.notifications.MarkAllRead(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"updated": updated}})
}

// DeleteNotification removes one of the current user's notifications
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	notifID, err := parseIDParam(c, "id", "notification")
	if err != nil {
		return err
	}

	if err := h.notifications.Delete(c.Request().Context(), getUserIDFromContext(c), notifID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
