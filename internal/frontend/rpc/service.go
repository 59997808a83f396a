// Package rpc exposes the execution service over gRPC.
//
// The service is described by a hand-written descriptor instead of
// generated stubs. Requests and responses are google.protobuf.Struct
// messages carrying the same JSON documents the web front-end uses, so
// grpcurl works against it through server reflection of the well-known
// types:
//
//	grpcurl -plaintext -d '{"code": "[1, 2]"}' localhost:9400 mbasic.v1.Frontend/Execute
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "mbasic.v1.Frontend"

// Full method names
const (
	MethodExecute  = "/" + ServiceName + "/Execute"
	MethodTokenize = "/" + ServiceName + "/Tokenize"
)

// FrontendServer is the server API of mbasic.v1.Frontend
type FrontendServer interface {
	Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes mbasic.v1.Frontend for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FrontendServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
		{MethodName: "Tokenize", Handler: tokenizeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mbasic/v1/frontend.proto",
}

func executeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FrontendServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodExecute}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FrontendServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func tokenizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FrontendServer).Tokenize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodTokenize}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FrontendServer).Tokenize(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
