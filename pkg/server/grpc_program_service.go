// Package server contains the order book program host service.
package server

import (
	"context"
	"errors"

	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/logging"
	"github.com/erain9/bookprogram/pkg/program"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCProgramService implements ProgramServer on an AccountManager
type GRPCProgramService struct {
	manager *AccountManager
}

var _ ProgramServer = (*GRPCProgramService)(nil)

// NewGRPCProgramService creates a new GRPCProgramService
func NewGRPCProgramService(manager *AccountManager) *GRPCProgramService {
	return &GRPCProgramService{
		manager: manager,
	}
}

// CreateAccount implements the CreateAccount RPC method
func (s *GRPCProgramService) CreateAccount(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name := req.GetValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "account name is required")
	}

	if _, err := s.manager.CreateAccount(ctx, name); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// DeleteAccount implements the DeleteAccount RPC method
func (s *GRPCProgramService) DeleteAccount(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name := req.GetValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "account name is required")
	}

	if err := s.manager.DeleteAccount(ctx, name); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// GetState implements the GetState RPC method
func (s *GRPCProgramService) GetState(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	name := req.GetValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "account name is required")
	}

	state, err := s.manager.GetState(ctx, name)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(state), nil
}

// Invoke implements the Invoke RPC method
func (s *GRPCProgramService) Invoke(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	logger := logging.FromContext(ctx).With().Str("method", "Invoke").Logger()

	md, _ := metadata.FromIncomingContext(ctx)
	accounts := md.Get(logging.MetadataAccount)
	if len(accounts) == 0 || accounts[0] == "" {
		return nil, status.Errorf(codes.InvalidArgument, "missing %s metadata", logging.MetadataAccount)
	}

	var signer core.Trader
	if signers := md.Get(logging.MetadataSigner); len(signers) > 0 && signers[0] != "" {
		parsed, err := core.ParseTrader(signers[0])
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid %s metadata: %v", logging.MetadataSigner, err)
		}
		signer = parsed
	}

	logger.Debug().Str("account", accounts[0]).Int("bytes", len(req.GetValue())).Msg("Request received")

	output, err := s.manager.Invoke(ctx, accounts[0], req.GetValue(), signer)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(output), nil
}

// toStatus maps program and store errors to gRPC status codes
func toStatus(err error) error {
	switch {
	case errors.Is(err, program.ErrInvalidInstructionData):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, program.ErrInvalidAccountData):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, program.ErrNoOrdersAvailable):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, program.ErrInsufficientStorage):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, core.ErrAccountExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, core.ErrAccountNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}
