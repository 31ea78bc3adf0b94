package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// accessTokenInterceptor guards methods that identify the caller through
// the authorization metadata entry.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if info.FullMethod == WhoAmIMethod {

		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(strings.ToLower(common.AuthorizationHeaderName))
			if len(values) > 0 {
				accessToken = strings.TrimSpace(strings.TrimPrefix(values[0], common.BearerPrefix))
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		accountID, err := s.tokens.Verify(accessToken)
		if err != nil {
			return nil, toStatus(err).Err()
		}

		ctx = context.WithValue(ctx, accountIDKey, accountID)
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "rpc", "method", info.FullMethod, "code", status.Code(err).String(), "latency", time.Since(start))
	return resp, err
}
