package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Introspect(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	account, err := s.accounts.Authenticate(ctx, req.GetValue())
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	return accountStruct(account)
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, _ := ctx.Value(accountIDKey).(string)
	if id == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	account, err := s.accounts.Account(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	return accountStruct(account)
}

func accountStruct(a *models.PublicAccount) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"account_id": a.ID,
		"handle":     a.Handle,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) fail(ctx context.Context, err error) error {
	st := toStatus(err)
	if st.Code() == codes.Internal {
		s.logger.Error(ctx, "introspection failed", logging.ErrorAttrs(err)...)
	}
	return st.Err()
}

// toStatus maps token and account errors onto gRPC codes. A token whose
// account is gone is treated like an invalid token.
func toStatus(err error) *status.Status {
	switch {
	case errors.Is(err, common.ErrExpiredToken):
		return status.New(codes.Unauthenticated, common.ErrExpiredToken.Error())
	case errors.Is(err, common.ErrInvalidSignature):
		return status.New(codes.Unauthenticated, common.ErrInvalidSignature.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.New(codes.Unauthenticated, "account not found")
	default:
		return status.New(codes.Internal, "internal error")
	}
}
