package server

import (
	"context"

	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "orderbook.v1.OrderBookProgram"

// Full method names
const (
	MethodCreateAccount = "/" + ServiceName + "/CreateAccount"
	MethodDeleteAccount = "/" + ServiceName + "/DeleteAccount"
	MethodGetState      = "/" + ServiceName + "/GetState"
	MethodInvoke        = "/" + ServiceName + "/Invoke"
)

// ProgramServer is the server API of the order book program host.
// Messages are protobuf well-known types so no generated code is needed.
type ProgramServer interface {
	CreateAccount(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	DeleteAccount(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetState(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	// Invoke reads the account from x-account metadata and the base58
	// signer from x-signer
	Invoke(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// ProgramServiceDesc describes the OrderBookProgram service
var ProgramServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProgramServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAccount", Handler: createAccountHandler},
		{MethodName: "DeleteAccount", Handler: deleteAccountHandler},
		{MethodName: "GetState", Handler: getStateHandler},
		{MethodName: "Invoke", Handler: invokeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderbook/v1/program.proto",
}

func createAccountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProgramServer).CreateAccount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCreateAccount}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProgramServer).CreateAccount(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func deleteAccountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProgramServer).DeleteAccount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodDeleteAccount}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProgramServer).DeleteAccount(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProgramServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetState}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProgramServer).GetState(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func invokeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProgramServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodInvoke}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ProgramServer).Invoke(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ProgramClient is the client API of the order book program host
type ProgramClient interface {
	CreateAccount(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	DeleteAccount(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetState(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Invoke(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type programClient struct {
	cc grpc.ClientConnInterface
}

// NewProgramClient creates a ProgramClient on cc
func NewProgramClient(cc grpc.ClientConnInterface) ProgramClient {
	return &programClient{cc: cc}
}

func (c *programClient) CreateAccount(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodCreateAccount, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *programClient) DeleteAccount(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodDeleteAccount, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *programClient) GetState(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, MethodGetState, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *programClient) Invoke(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, MethodInvoke, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// InvocationContext attaches the target account and signer to an outgoing call
func InvocationContext(ctx context.Context, account string, signer core.Trader) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		logging.MetadataAccount, account,
		logging.MetadataSigner, signer.String(),
	)
}
