package rpcapi

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"textgend/pkg/types"
)

// Client calls a TextGenerator server.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient connects to target without transport security. opts are
// applied after the defaults.
func NewClient(target string, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Generate performs a unary generation and returns the final text.
func (c *Client) Generate(ctx context.Context, req types.GenerateRequest, opts ...grpc.CallOption) (string, error) {
	out := new(types.GenerateResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.conn.Invoke(ctx, generateMethod, &req, out, opts...); err != nil {
		return "", err
	}
	return out.Text, nil
}

// FragmentStream receives the fragments of one streamed generation.
type FragmentStream struct {
	stream grpc.ClientStream
}

// Recv returns the next fragment; io.EOF marks a successful end.
func (s *FragmentStream) Recv() (string, error) {
	m := new(types.GenerateStreamedResponse)
	if err := s.stream.RecvMsg(m); err != nil {
		return "", err
	}
	return m.TextFragment, nil
}

// GenerateStreamed starts a streamed generation.
func (c *Client) GenerateStreamed(ctx context.Context, req types.GenerateStreamedRequest, opts ...grpc.CallOption) (*FragmentStream, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], generateStreamedMethod, opts...)
	if err != nil {
		return nil, err
	}
	// io.EOF means the server already ended the call; its status surfaces on Recv
	if err := stream.SendMsg(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &FragmentStream{stream: stream}, nil
}

// Serving reports whether the server's health service reports SERVING for
// the TextGenerator service.
func (c *Client) Serving(ctx context.Context) (bool, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: serviceName})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}
