package tickets_service_api

import (
	"context"

	"google.golang.org/grpc"
)

const serviceName = "tickets.v1.TicketService"

type ListTiersRequest struct{}

type Tier struct {
	Id                string `json:"id"`
	Name              string `json:"name"`
	Price             int64  `json:"price"`
	QuantityAvailable int32  `json:"quantity_available"`
}

type ListTiersResponse struct {
	Tiers []*Tier `json:"tiers"`
}

type BookRequest struct {
	Tier     string `json:"tier"`
	Quantity int32  `json:"quantity"`
	UserId   string `json:"user_id,omitempty"`
}

type BookingItem struct {
	Tier     string `json:"tier"`
	Quantity int32  `json:"quantity"`
	Price    int64  `json:"price"`
}

type BookResponse struct {
	BookingId string         `json:"booking_id"`
	Status    string         `json:"status"`
	Items     []*BookingItem `json:"items"`
}

type GetBookingRequest struct {
	BookingId string `json:"booking_id"`
}

type Booking struct {
	BookingId string         `json:"booking_id"`
	UserId    string         `json:"user_id"`
	Status    string         `json:"status"`
	CreatedAt string         `json:"created_at"`
	Items     []*BookingItem `json:"items"`
}

type TicketServiceServer interface {
	ListTiers(context.Context, *ListTiersRequest) (*ListTiersResponse, error)
	Book(context.Context, *BookRequest) (*BookResponse, error)
	GetBooking(context.Context, *GetBookingRequest) (*Booking, error)
}

func RegisterTicketServiceServer(s grpc.ServiceRegistrar, srv TicketServiceServer) {
	s.RegisterService(&TicketServiceDesc, srv)
}

var TicketServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TicketServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTiers", Handler: listTiersHandler},
		{MethodName: "Book", Handler: bookHandler},
		{MethodName: "GetBooking", Handler: getBookingHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func listTiersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListTiersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TicketServiceServer).ListTiers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListTiers"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(TicketServiceServer).ListTiers(ctx, req.(*ListTiersRequest))
	})
}

func bookHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BookRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TicketServiceServer).Book(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Book"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(TicketServiceServer).Book(ctx, req.(*BookRequest))
	})
}

func getBookingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBookingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TicketServiceServer).GetBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetBooking"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(TicketServiceServer).GetBooking(ctx, req.(*GetBookingRequest))
	})
}

// TicketServiceClient calls the service with the JSON codec.
type TicketServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTicketServiceClient(cc grpc.ClientConnInterface) *TicketServiceClient {
	return &TicketServiceClient{cc: cc}
}

func (c *TicketServiceClient) ListTiers(ctx context.Context, in *ListTiersRequest, opts ...grpc.CallOption) (*ListTiersResponse, error) {
	out := new(ListTiersResponse)
	if err := c.invoke(ctx, "ListTiers", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TicketServiceClient) Book(ctx context.Context, in *BookRequest, opts ...grpc.CallOption) (*BookResponse, error) {
	out := new(BookResponse)
	if err := c.invoke(ctx, "Book", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TicketServiceClient) GetBooking(ctx context.Context, in *GetBookingRequest, opts ...grpc.CallOption) (*Booking, error) {
	out := new(Booking)
	if err := c.invoke(ctx, "GetBooking", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TicketServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}
