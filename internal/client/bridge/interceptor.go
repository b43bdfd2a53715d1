package bridge

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const TokenMetadataKey = "bridge_token"

// checkToken is a no-op when the server has no token configured.
func (s *Server) checkToken(ctx context.Context) error {
	if s.token == "" {
		return nil
	}

	var got string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(TokenMetadataKey); len(values) > 0 {
			got = values[0]
		}
	}
	if got == "" {
		return status.Error(codes.Unauthenticated, "missing token")
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}

func (s *Server) tokenUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if err := s.checkToken(ctx); err != nil {
		s.logger.Warn(ctx, "bridge call rejected", "method", info.FullMethod)
		return nil, err
	}
	return handler(ctx, req)
}

func (s *Server) tokenStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if err := s.checkToken(ss.Context()); err != nil {
		s.logger.Warn(ss.Context(), "bridge stream rejected", "method", info.FullMethod)
		return err
	}
	return handler(srv, ss)
}
