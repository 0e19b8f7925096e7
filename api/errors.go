package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/logging"
	"github.com/gin-gonic/gin"
)

const (
	codeInvalidRequestBody    = "invalid_request_body"
	codeTierRequired          = "tier_required"
	codeInvalidQuantity       = "invalid_quantity"
	codePaymentFailed         = "payment_failed"
	codeTierNotFound          = "tier_not_found"
	codeInsufficientInventory = "insufficient_inventory"
	codeTransactionConflict   = "transaction_conflict"
	codeBookingNotFound       = "booking_not_found"
	codeStoreUnavailable      = "store_unavailable"
	codeNotFound              = "not_found"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
	codeRequestCanceled       = "request_canceled"
)

// statusClientClosedRequest is nginx's code for a client that went away mid-request.
const statusClientClosedRequest = 499

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// First match wins.
var errorMappings = []errorMapping{
	{domain.ErrTierRequired, http.StatusBadRequest, codeTierRequired},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
	{domain.ErrPaymentFailed, http.StatusConflict, codePaymentFailed},
	{domain.ErrTierNotFound, http.StatusConflict, codeTierNotFound},
	{domain.ErrInsufficientInventory, http.StatusConflict, codeInsufficientInventory},
	{domain.ErrTransactionConflict, http.StatusConflict, codeTransactionConflict},
	{domain.ErrBookingNotFound, http.StatusNotFound, codeBookingNotFound},
	{domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable},
	{context.Canceled, statusClientClosedRequest, codeRequestCanceled},
}

// writeError renders a domain error. Unknown errors become a bare 500 and are logged.
// A cancelled request is not logged: the client is already gone.
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.AbortWithStatusJSON(m.status, errorResponse{
				Error:     m.target.Error(),
				Code:      m.code,
				Retryable: domain.IsRetryable(err),
			})
			return
		}
	}

	logging.FromContext(c.Request.Context()).WithError(err).Error("unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: codeInternalError})
}

func writeBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Code: codeInvalidRequestBody})
}
