package api

import (
	"net/http"

	"github.com/Domenick1991/ticketbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service catalog.CatalogUseCase
}

func NewTicketHandler(service catalog.CatalogUseCase) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.GET("/tickets", h.list)
}

func (h *TicketHandler) list(c *gin.Context) {
	tiers, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tiers)
}
