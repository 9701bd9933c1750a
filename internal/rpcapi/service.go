package rpcapi

import (
	"context"

	"google.golang.org/grpc"

	"textgend/pkg/types"
)

const (
	serviceName            = "TextGenerator"
	generateMethod         = "/TextGenerator/Generate"
	generateStreamedMethod = "/TextGenerator/GenerateStreamed"
)

// TextGeneratorServer is the server API of the TextGenerator service.
type TextGeneratorServer interface {
	Generate(context.Context, *types.GenerateRequest) (*types.GenerateResponse, error)
	GenerateStreamed(*types.GenerateStreamedRequest, TextGenerator_GenerateStreamedServer) error
}

// TextGenerator_GenerateStreamedServer is the server side of a GenerateStreamed call.
type TextGenerator_GenerateStreamedServer interface {
	Send(*types.GenerateStreamedResponse) error
	grpc.ServerStream
}

type generateStreamedServer struct {
	grpc.ServerStream
}

func (x *generateStreamedServer) Send(m *types.GenerateStreamedResponse) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterTextGeneratorServer registers srv on s.
func RegisterTextGeneratorServer(s grpc.ServiceRegistrar, srv TextGeneratorServer) {
	s.RegisterService(&serviceDesc, srv)
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(types.GenerateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TextGeneratorServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: generateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TextGeneratorServer).Generate(ctx, req.(*types.GenerateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func generateStreamedHandler(srv any, stream grpc.ServerStream) error {
	in := new(types.GenerateStreamedRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TextGeneratorServer).GenerateStreamed(in, &generateStreamedServer{stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TextGeneratorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "GenerateStreamed", Handler: generateStreamedHandler, ServerStreams: true},
	},
	Metadata: "text_generator.proto",
}
