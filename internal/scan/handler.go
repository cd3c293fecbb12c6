package scan

import (
	"io"

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

// ScanMenu handles POST /scan-menu: multipart image + language field.
func (h *Handler) ScanMenu(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		api.Fail(c, apperr.New(apperr.InvalidInput, "image file is required"))
		return
	}
	defer file.Close()

	// Read one byte past the cap so oversize uploads fail validation
	// instead of being silently truncated.
	image, err := io.ReadAll(io.LimitReader(file, h.service.maxUploadBytes+1))
	if err != nil {
		api.Fail(c, apperr.Wrap(apperr.InvalidInput, "could not read image file", err))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	language := c.PostForm("language")

	m, err := h.service.Scan(c.Request.Context(), image, mimeType, language)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, m)
}
