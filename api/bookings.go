package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookRequest struct {
	Tier     string `json:"tier"`
	Quantity int    `json:"quantity"`
	UserID   string `json:"userId"`
}

type bookingItemResponse struct {
	Tier     string `json:"tier"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type bookingResponse struct {
	BookingID string                `json:"bookingId"`
	UserID    string                `json:"userId"`
	Status    string                `json:"status"`
	CreatedAt string                `json:"createdAt"`
	Items     []bookingItemResponse `json:"items"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/book", h.book)
	router.GET("/bookings/:id", h.get)
}

func (h *BookingHandler) book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	result, err := h.service.Book(c.Request.Context(), booking.BookInput{
		Tier:     req.Tier,
		Quantity: req.Quantity,
		UserID:   req.UserID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		BookingID: b.ID,
		UserID:    b.UserID,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		Items:     make([]bookingItemResponse, 0, len(b.Items)),
	}
	for _, item := range b.Items {
		resp.Items = append(resp.Items, bookingItemResponse{
			Tier:     string(item.TierName),
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return resp
}
