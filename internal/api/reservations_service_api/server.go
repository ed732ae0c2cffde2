package reservations_service_api

import (
	"context"

	"github.com/Domenick1991/roombooking/internal/auth"
	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/Domenick1991/roombooking/internal/service/booking"
	"github.com/Domenick1991/roombooking/internal/service/revision"
	"google.golang.org/grpc"
)

const ServiceName = "reservations.v1.ReservationService"

type UpdateBookingRequest struct {
	ID      string                `json:"id"`
	Booking domain.BookingRequest `json:"booking"`
}

type IDRequest struct {
	ID string `json:"id"`
}

// ReservationServiceServer is the contract served under ServiceName.
type ReservationServiceServer interface {
	CreateBooking(ctx context.Context, req *domain.BookingRequest) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, req *UpdateBookingRequest) (*domain.Booking, error)
	CancelBooking(ctx context.Context, req *IDRequest) (*domain.Booking, error)
	GetBooking(ctx context.Context, req *IDRequest) (*domain.Booking, error)
	ApproveRevision(ctx context.Context, req *IDRequest) (*revision.Approval, error)
	RejectRevision(ctx context.Context, req *IDRequest) (*domain.RevisionRequest, error)
}

// Server adapts the booking and revision use cases to gRPC.
type Server struct {
	bookings  booking.BookingUseCase
	revisions revision.RevisionUseCase
}

func NewServer(bookings booking.BookingUseCase, revisions revision.RevisionUseCase) *Server {
	return &Server{bookings: bookings, revisions: revisions}
}

func (s *Server) CreateBooking(ctx context.Context, req *domain.BookingRequest) (*domain.Booking, error) {
	actor, err := requireRoles(ctx, domain.RoleAdmin, domain.RoleEditor, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.bookings.CreateBooking(ctx, *req, actor)
}

func (s *Server) UpdateBooking(ctx context.Context, req *UpdateBookingRequest) (*domain.Booking, error) {
	actor, err := requireRoles(ctx, domain.RoleAdmin, domain.RoleEditor)
	if err != nil {
		return nil, err
	}
	return s.bookings.UpdateBooking(ctx, req.ID, req.Booking, actor)
}

func (s *Server) CancelBooking(ctx context.Context, req *IDRequest) (*domain.Booking, error) {
	actor, err := requireRoles(ctx, domain.RoleAdmin, domain.RoleEditor)
	if err != nil {
		return nil, err
	}
	return s.bookings.CancelBooking(ctx, req.ID, actor)
}

func (s *Server) GetBooking(ctx context.Context, req *IDRequest) (*domain.Booking, error) {
	if _, err := requireRoles(ctx); err != nil {
		return nil, err
	}
	return s.bookings.GetBooking(ctx, req.ID)
}

func (s *Server) ApproveRevision(ctx context.Context, req *IDRequest) (*revision.Approval, error) {
	actor, err := requireRoles(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return s.revisions.ApproveRevision(ctx, req.ID, actor)
}

func (s *Server) RejectRevision(ctx context.Context, req *IDRequest) (*domain.RevisionRequest, error) {
	actor, err := requireRoles(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return s.revisions.RejectRevision(ctx, req.ID, actor)
}

// requireRoles returns the caller; with no roles any authenticated caller passes.
func requireRoles(ctx context.Context, roles ...domain.Role) (domain.Actor, error) {
	actor, ok := auth.ActorFrom(ctx)
	if !ok || actor.ID == "" {
		return domain.Actor{}, domain.Unauthorized("")
	}
	if len(roles) > 0 && !actor.HasRole(roles...) {
		return domain.Actor{}, domain.Forbidden("")
	}
	return actor, nil
}

func RegisterReservationServiceServer(s grpc.ServiceRegistrar, srv ReservationServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReservationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateBooking", Handler: unary("CreateBooking", func(srv ReservationServiceServer, ctx context.Context, req *domain.BookingRequest) (any, error) {
			return srv.CreateBooking(ctx, req)
		})},
		{MethodName: "UpdateBooking", Handler: unary("UpdateBooking", func(srv ReservationServiceServer, ctx context.Context, req *UpdateBookingRequest) (any, error) {
			return srv.UpdateBooking(ctx, req)
		})},
		{MethodName: "CancelBooking", Handler: unary("CancelBooking", func(srv ReservationServiceServer, ctx context.Context, req *IDRequest) (any, error) {
			return srv.CancelBooking(ctx, req)
		})},
		{MethodName: "GetBooking", Handler: unary("GetBooking", func(srv ReservationServiceServer, ctx context.Context, req *IDRequest) (any, error) {
			return srv.GetBooking(ctx, req)
		})},
		{MethodName: "ApproveRevision", Handler: unary("ApproveRevision", func(srv ReservationServiceServer, ctx context.Context, req *IDRequest) (any, error) {
			return srv.ApproveRevision(ctx, req)
		})},
		{MethodName: "RejectRevision", Handler: unary("RejectRevision", func(srv ReservationServiceServer, ctx context.Context, req *IDRequest) (any, error) {
			return srv.RejectRevision(ctx, req)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reservations/v1/reservations.proto",
}

// unary builds a method handler that decodes Req and runs call through the interceptor chain.
func unary[Req any](method string, call func(ReservationServiceServer, context.Context, *Req) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(ReservationServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var _ ReservationServiceServer = (*Server)(nil)
