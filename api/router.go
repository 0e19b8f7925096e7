package api

import (
	"net/http"

	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	CORSOrigins []string
	Log         *logrus.Entry
}

func NewRouter(cfg RouterConfig, tickets catalog.CatalogUseCase, bookings booking.BookingUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Log), CORS(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := router.Group("/api")
	NewTicketHandler(tickets).Register(group)
	NewBookingHandler(bookings).Register(group)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found", Code: codeNotFound})
	})
	return router
}
