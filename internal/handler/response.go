package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"botpanel/internal/app"
	"botpanel/internal/client"
	"botpanel/internal/form"
)

// envelope wraps every JSON body. Code is 0 on success and the HTTP status
// otherwise.
type envelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, envelope{Message: "ok", Data: data, Meta: meta})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, envelope{Code: status, Message: message, Meta: meta})
}

// Fail maps a panel error onto a status. Backend failures surface as 502
// with the upstream status in meta.
func Fail(c *gin.Context, err error) {
	var he *client.HTTPError
	switch {
	case errors.As(err, &he):
		Error(c, http.StatusBadGateway, err.Error(), map[string]any{"upstream_status": he.StatusCode, "detail": he.Detail})
	case errors.Is(err, app.ErrNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, app.ErrUnknownSection), errors.Is(err, form.ErrInvalid):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, app.ErrNotConfirmed), errors.Is(err, app.ErrNoEditor):
		Error(c, http.StatusConflict, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}
