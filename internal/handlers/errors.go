package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/community/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindAuth:       http.StatusUnauthorized,
	services.KindNotFound:   http.StatusNotFound,
	services.KindForbidden:  http.StatusForbidden,
}

// httpError maps a service error onto an echo HTTP error. Internal
// failures are logged and answered without detail.
func httpError(c echo.Context, err error) error {
	var se *services.Error
	if errors.As(err, &se) {
		if status, ok := kindStatus[se.Kind]; ok {
			return echo.NewHTTPError(status, se.Message)
		}
	}
	log.Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
