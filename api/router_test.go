package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/logging"
	"github.com/Domenick1991/ticketbooking/internal/payment"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, gate payment.Gate) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	require.NoError(t, store.Seed(context.Background(), domain.DefaultSeed()))
	catalogSvc := catalog.NewCatalogService(store, nil)
	bookingSvc := booking.NewBookingService(store, gate, booking.WithCatalog(catalogSvc))

	return NewRouter(RouterConfig{CORSOrigins: []string{"http://localhost:3000"}, Log: logging.Discard()}, catalogSvc, bookingSvc)
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	w := do(newTestRouter(t, payment.Approve()), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRouter_BookThenListAndRead(t *testing.T) {
	router := newTestRouter(t, payment.Approve())

	w := do(router, http.MethodPost, "/api/book", `{"tier":"VIP","quantity":2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result booking.BookingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, domain.BookingStatusConfirmed, result.Status)

	w = do(router, http.MethodGet, "/api/tickets", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tiers []domain.CatalogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tiers))
	require.Len(t, tiers, 3)
	assert.Equal(t, domain.TierVIP, tiers[0].Name)
	assert.Equal(t, 98, tiers[0].QuantityAvailable)

	w = do(router, http.MethodGet, "/api/bookings/"+result.BookingID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var b bookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, domain.DefaultUserID, b.UserID)
	assert.Equal(t, []bookingItemResponse{{Tier: "VIP", Quantity: 2, Price: 100}}, b.Items)
}

func TestRouter_BookFailures(t *testing.T) {
	router := newTestRouter(t, payment.Approve())

	w := do(router, http.MethodPost, "/api/book", `{"tier":"GA","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/api/book", `{"tier":"GA","quantity":501}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), codeInsufficientInventory)

	w = do(newTestRouter(t, payment.Decline()), http.MethodPost, "/api/book", `{"tier":"GA","quantity":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), codePaymentFailed)
}

func TestRouter_NotFound(t *testing.T) {
	w := do(newTestRouter(t, payment.Approve()), http.MethodGet, "/api/flights", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), codeNotFound)
}
