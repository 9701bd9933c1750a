package rpcapi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"textgend/internal/generator"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "x-request-id"

// incomingRequestID returns the caller supplied request id or a fresh one.
func incomingRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

func unaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := incomingRequestID(ctx)
	ctx = generator.WithRequestID(ctx, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

	end := begin(info.FullMethod, id)
	resp, err := handler(ctx, req)
	end(err)
	return resp, err
}

// requestStream overrides the context of a server stream so handlers see
// the request id.
type requestStream struct {
	grpc.ServerStream
	ctx    context.Context
	method string
}

func (s *requestStream) Context() context.Context { return s.ctx }

func (s *requestStream) SendMsg(m any) error {
	if err := s.ServerStream.SendMsg(m); err != nil {
		return err
	}
	rpcStreamMsgsSent.WithLabelValues(s.method).Inc()
	return nil
}

func streamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	id := incomingRequestID(ss.Context())
	_ = ss.SetHeader(metadata.Pairs(RequestIDHeader, id))
	wrapped := &requestStream{ServerStream: ss, ctx: generator.WithRequestID(ss.Context(), id), method: info.FullMethod}

	end := begin(info.FullMethod, id)
	err := handler(srv, wrapped)
	end(err)
	return err
}

// begin records the start of an RPC and returns the function recording its end.
func begin(method, id string) func(error) {
	start := time.Now()
	rpcInflight.WithLabelValues(method).Inc()
	logger().Info().Str("method", method).Str("request_id", id).Msg("rpc start")
	return func(err error) {
		rpcInflight.WithLabelValues(method).Dec()
		code := status.Code(err)
		dur := time.Since(start)
		rpcRequestsTotal.WithLabelValues(method, code.String()).Inc()
		rpcRequestDuration.WithLabelValues(method, code.String()).Observe(dur.Seconds())
		ev := logger().Info()
		if err != nil {
			ev = logger().Warn().Err(err)
		}
		ev.Str("method", method).Str("request_id", id).Str("code", code.String()).Dur("dur", dur).Msg("rpc end")
	}
}
