package rpcapi

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"textgend/internal/engine"
	"textgend/internal/generator"
)

// toStatus maps generation errors to gRPC status errors. Errors that
// already carry a status are returned unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codeOf(err), err.Error())
}

func codeOf(err error) codes.Code {
	switch {
	case generator.IsTooBusy(err):
		return codes.ResourceExhausted
	case generator.IsInvalidRequest(err):
		return codes.InvalidArgument
	case engine.IsDependencyUnavailable(err), generator.IsPoolClosed(err):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}
