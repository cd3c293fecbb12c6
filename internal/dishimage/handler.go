package dishimage

import (
	"github.com/gin-gonic/gin"

	"github.com/Chenxue3/restaurant-sub001/internal/api"
	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GenerateDishImage handles POST /generate-dish-image. A single call
// drives the cache entry for the dish key to a terminal state; concurrent
// callers for the same dish share one upstream generation.
func (h *Handler) GenerateDishImage(c *gin.Context) {
	var req struct {
		DishName    string `json:"dishName"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, apperr.Wrap(apperr.InvalidInput, "invalid request body", err))
		return
	}

	url, err := h.service.Generate(c.Request.Context(), req.DishName, req.Description)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"imageUrl": url})
}
