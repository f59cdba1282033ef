package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/community/internal/middleware"
	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext returns the authenticated user id, 0 when anonymous
func getUserIDFromContext(c echo.Context) uint {
	id, _ := c.Get(middleware.ContextUserID).(uint)
	return id
}

func parseIDParam(c echo.Context, name, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return uint(id), nil
}

// toggle flips one interaction edge and answers with the new count
func toggle(c echo.Context, interactions *services.InteractionService, kind models.InteractionKind, param, what string, on bool) error {
	targetID, err := parseIDParam(c, param, what)
	if err != nil {
		return err
	}
	return toggleTarget(c, interactions, targetID, kind, on)
}

func toggleTarget(c echo.Context, interactions *services.InteractionService, targetID uint, kind models.InteractionKind, on bool) error {
	res, err := interactions.Toggle(c.Request().Context(), getUserIDFromContext(c), targetID, kind, on)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"applied":   res.Applied,
		"new_count": res.NewCount,
	})
}
