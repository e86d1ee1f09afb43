package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/openflag/internal/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const requestIDKey = "x-request-id"

func (s *HealthServer) requestIDInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDKey); len(values) > 0 {
			id = values[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	ctx = logging.ContextWithRequestID(ctx, id)

	begin := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "grpc call failed", "method", info.FullMethod, "took", time.Since(begin), "error", err)
	} else {
		s.logger.Debug(ctx, "grpc call served", "method", info.FullMethod, "took", time.Since(begin))
	}
	return resp, err
}
