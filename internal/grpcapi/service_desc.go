// Package grpcapi exposes the check-in desk as the checkin.v1.CheckIn gRPC
// service.  Every method takes and returns a google.protobuf.Struct whose
// fields match the JSON API.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "checkin.v1.CheckIn"

// CheckInServer is the server API for checkin.v1.CheckIn.
type CheckInServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Lookup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordAttempt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(CheckInServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CheckInServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CheckInServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CheckInServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Register", CheckInServer.Register),
		unaryHandler("Lookup", CheckInServer.Lookup),
		unaryHandler("RecordAttempt", CheckInServer.RecordAttempt),
		unaryHandler("ListEvents", CheckInServer.ListEvents),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "checkin/v1/checkin.proto",
}

func RegisterCheckInServer(s grpc.ServiceRegistrar, srv CheckInServer) {
	s.RegisterService(&ServiceDesc, srv)
}
