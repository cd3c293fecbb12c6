package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
)

// Envelope is the public response contract shared by every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK maps an internal result to the success envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail maps a typed error to its HTTP status and caller-facing message.
// Internal detail (wrapped causes, raw model output) never leaves here.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.JSON(apperr.HTTPStatus(kind), Envelope{
		Success: false,
		Message: apperr.UserMessage(err),
	})
}
