package tickets_service_api

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/logging"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/catalog"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Server implements TicketServiceServer on top of the catalog and booking services.
type Server struct {
	catalog  catalog.CatalogUseCase
	bookings booking.BookingUseCase
}

func NewServer(tiers catalog.CatalogUseCase, bookings booking.BookingUseCase) *Server {
	return &Server{catalog: tiers, bookings: bookings}
}

func (s *Server) ListTiers(ctx context.Context, _ *ListTiersRequest) (*ListTiersResponse, error) {
	list, err := s.catalog.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &ListTiersResponse{Tiers: make([]*Tier, 0, len(list))}
	for _, e := range list {
		resp.Tiers = append(resp.Tiers, &Tier{
			Id:                e.TierID,
			Name:              string(e.Name),
			Price:             e.Price,
			QuantityAvailable: int32(e.QuantityAvailable),
		})
	}
	return resp, nil
}

func (s *Server) Book(ctx context.Context, req *BookRequest) (*BookResponse, error) {
	result, err := s.bookings.Book(ctx, booking.BookInput{
		Tier:     req.Tier,
		Quantity: int(req.Quantity),
		UserID:   req.UserId,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &BookResponse{BookingId: result.BookingID, Status: string(result.Status)}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, &BookingItem{Tier: string(item.Tier), Quantity: int32(item.Quantity), Price: item.Price})
	}
	return resp, nil
}

func (s *Server) GetBooking(ctx context.Context, req *GetBookingRequest) (*Booking, error) {
	b, err := s.bookings.GetBooking(ctx, req.BookingId)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &Booking{
		BookingId: b.ID,
		UserId:    b.UserID,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
	for _, item := range b.Items {
		resp.Items = append(resp.Items, &BookingItem{Tier: string(item.TierName), Quantity: int32(item.Quantity), Price: item.Price})
	}
	return resp, nil
}

func toStatus(err error) error {
	switch {
	case domain.IsClientError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrTierNotFound), errors.Is(err, domain.ErrBookingNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientInventory):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrPaymentFailed), errors.Is(err, domain.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, domain.ErrTransactionConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

const requestIDKey = "x-request-id"

// UnaryLogger mirrors the HTTP request logger: it attaches a correlation id
// taken from x-request-id metadata (or a fresh one) and logs each call.
func UnaryLogger(base *logrus.Entry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		var id string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(requestIDKey); len(vals) > 0 {
				id = vals[0]
			}
		}
		ctx = logging.ToContext(ctx, base)
		ctx, _ = logging.WithCorrelationID(ctx, id)

		resp, err := handler(ctx, req)

		logging.FromContext(ctx).WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		}).Info("grpc call")
		return resp, err
	}
}

var _ TicketServiceServer = (*Server)(nil)
