package translate

import (
	"github.com/gin-gonic/gin"

	"github.com/Chenxue3/restaurant-sub001/internal/api"
	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
	"github.com/Chenxue3/restaurant-sub001/internal/menu"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// TranslateMenu handles POST /translate-menu.
func (h *Handler) TranslateMenu(c *gin.Context) {
	var req struct {
		Menu     *menu.ExtractedMenu `json:"menu"`
		Language string              `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, apperr.Wrap(apperr.InvalidInput, "invalid request body", err))
		return
	}

	translated, err := h.service.Translate(c.Request.Context(), req.Menu, req.Language)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, translated)
}
