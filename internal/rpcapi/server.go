package rpcapi

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"textgend/internal/generator"
	"textgend/pkg/types"
)

// Generator is the generation backend served over RPC.
type Generator interface {
	Generate(ctx context.Context, req types.GenerateRequest) (string, error)
	GenerateStreamed(ctx context.Context, req types.GenerateStreamedRequest, send func(generator.Fragment) error) error
}

// service adapts a Generator to the TextGenerator RPC surface.
type service struct {
	gen Generator
}

func (s *service) Generate(ctx context.Context, req *types.GenerateRequest) (*types.GenerateResponse, error) {
	text, err := s.gen.Generate(ctx, *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &types.GenerateResponse{Text: text}, nil
}

// GenerateStreamed forwards every fragment as one response message. Empty
// fragments are forwarded too; clients treat them as no-ops.
func (s *service) GenerateStreamed(req *types.GenerateStreamedRequest, stream TextGenerator_GenerateStreamedServer) error {
	err := s.gen.GenerateStreamed(stream.Context(), *req, func(f generator.Fragment) error {
		return stream.Send(&types.GenerateStreamedResponse{TextFragment: f.Text})
	})
	return toStatus(err)
}

// Server is a gRPC server exposing TextGenerator plus the standard health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
}

// NewServer builds a gRPC server for gen. opts are appended after the
// logging and metrics interceptors.
func NewServer(gen Generator, opts ...grpc.ServerOption) *Server {
	base := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unaryInterceptor),
		grpc.ChainStreamInterceptor(streamInterceptor),
	}
	gs := grpc.NewServer(append(base, opts...)...)
	RegisterTextGeneratorServer(gs, &service{gen: gen})
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	return &Server{grpc: gs, health: hs}
}

// Serve accepts connections on lis until Stop or GracefulStop.
func (s *Server) Serve(lis net.Listener) error {
	logger().Info().Str("addr", lis.Addr().String()).Msg("grpc listening")
	return s.grpc.Serve(lis)
}

// Shutdown reports NOT_SERVING, then drains in-flight calls until ctx is
// done, after which remaining calls are cut.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
		<-done
	}
}
