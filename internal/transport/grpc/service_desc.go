package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	BookingServiceName = "bookly.v1.BookingService"
	CatalogServiceName = "bookly.v1.CatalogService"
)

type BookingServiceServer interface {
	GetAvailability(context.Context, *GetAvailabilityRequest) (*GetAvailabilityResponse, error)
	ListSlots(context.Context, *ListSlotsRequest) (*ListSlotsResponse, error)
	ValidateBooking(context.Context, *ValidateBookingRequest) (*ValidateBookingResponse, error)
	CreateAppointment(context.Context, *CreateAppointmentRequest) (*AppointmentResponse, error)
	TransitionAppointment(context.Context, *TransitionAppointmentRequest) (*AppointmentResponse, error)
	GetAppointment(context.Context, *GetAppointmentRequest) (*AppointmentResponse, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
}

type CatalogServiceServer interface {
	CreateProvider(context.Context, *ProviderRequest) (*ProviderResponse, error)
	GetProvider(context.Context, *GetProviderRequest) (*ProviderResponse, error)
	UpdateProvider(context.Context, *ProviderRequest) (*ProviderResponse, error)
	CreateRule(context.Context, *RuleRequest) (*RuleResponse, error)
	ListRules(context.Context, *ListRulesRequest) (*ListRulesResponse, error)
	UpdateRule(context.Context, *RuleRequest) (*RuleResponse, error)
	DeleteRule(context.Context, *DeleteRequest) (*Empty, error)
	CreateTimeBlock(context.Context, *TimeBlockRequest) (*TimeBlockResponse, error)
	ListTimeBlocks(context.Context, *ListTimeBlocksRequest) (*ListTimeBlocksResponse, error)
	DeleteTimeBlock(context.Context, *DeleteRequest) (*Empty, error)
	CreateService(context.Context, *ServiceRequest) (*ServiceResponse, error)
	GetService(context.Context, *GetServiceRequest) (*ServiceResponse, error)
	ListServices(context.Context, *ListServicesRequest) (*ListServicesResponse, error)
	UpdateService(context.Context, *ServiceRequest) (*ServiceResponse, error)
	DeleteService(context.Context, *DeleteRequest) (*Empty, error)
}

// unary builds a method handler that decodes the request with the
// negotiated codec and runs it through the server's interceptor chain.
func unary[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: BookingServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(BookingServiceName, "GetAvailability", BookingServiceServer.GetAvailability),
		unary(BookingServiceName, "ListSlots", BookingServiceServer.ListSlots),
		unary(BookingServiceName, "ValidateBooking", BookingServiceServer.ValidateBooking),
		unary(BookingServiceName, "CreateAppointment", BookingServiceServer.CreateAppointment),
		unary(BookingServiceName, "TransitionAppointment", BookingServiceServer.TransitionAppointment),
		unary(BookingServiceName, "GetAppointment", BookingServiceServer.GetAppointment),
		unary(BookingServiceName, "ListAppointments", BookingServiceServer.ListAppointments),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookly/v1/booking",
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CatalogServiceName, "CreateProvider", CatalogServiceServer.CreateProvider),
		unary(CatalogServiceName, "GetProvider", CatalogServiceServer.GetProvider),
		unary(CatalogServiceName, "UpdateProvider", CatalogServiceServer.UpdateProvider),
		unary(CatalogServiceName, "CreateRule", CatalogServiceServer.CreateRule),
		unary(CatalogServiceName, "ListRules", CatalogServiceServer.ListRules),
		unary(CatalogServiceName, "UpdateRule", CatalogServiceServer.UpdateRule),
		unary(CatalogServiceName, "DeleteRule", CatalogServiceServer.DeleteRule),
		unary(CatalogServiceName, "CreateTimeBlock", CatalogServiceServer.CreateTimeBlock),
		unary(CatalogServiceName, "ListTimeBlocks", CatalogServiceServer.ListTimeBlocks),
		unary(CatalogServiceName, "DeleteTimeBlock", CatalogServiceServer.DeleteTimeBlock),
		unary(CatalogServiceName, "CreateService", CatalogServiceServer.CreateService),
		unary(CatalogServiceName, "GetService", CatalogServiceServer.GetService),
		unary(CatalogServiceName, "ListServices", CatalogServiceServer.ListServices),
		unary(CatalogServiceName, "UpdateService", CatalogServiceServer.UpdateService),
		unary(CatalogServiceName, "DeleteService", CatalogServiceServer.DeleteService),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookly/v1/catalog",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingServiceDesc, srv)
}

func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

var (
	_ BookingServiceServer = (*BookingServer)(nil)
	_ CatalogServiceServer = (*CatalogServer)(nil)
)
