package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "skinledger.v1.PortfolioService"

// Method names of the PortfolioService
const (
	MethodGetSummary      = "GetSummary"
	MethodListInvestments = "ListInvestments"
	MethodRefreshPrice    = "RefreshPrice"
	MethodRefreshAll      = "RefreshAll"
	MethodTopPerformers   = "TopPerformers"
)

// PortfolioServiceServer is the server API of the PortfolioService.
// Requests and responses are google.protobuf.Struct documents.
type PortfolioServiceServer interface {
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListInvestments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshPrice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshAll(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TopPerformers(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(PortfolioServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PortfolioServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PortfolioServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FullMethod returns the RPC path of a PortfolioService method
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ServiceDesc describes the PortfolioService for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodGetSummary,
			Handler: unaryHandler(MethodGetSummary, func(s PortfolioServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.GetSummary(ctx, in)
			}),
		},
		{
			MethodName: MethodListInvestments,
			Handler: unaryHandler(MethodListInvestments, func(s PortfolioServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.ListInvestments(ctx, in)
			}),
		},
		{
			MethodName: MethodRefreshPrice,
			Handler: unaryHandler(MethodRefreshPrice, func(s PortfolioServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.RefreshPrice(ctx, in)
			}),
		},
		{
			MethodName: MethodRefreshAll,
			Handler: unaryHandler(MethodRefreshAll, func(s PortfolioServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.RefreshAll(ctx, in)
			}),
		},
		{
			MethodName: MethodTopPerformers,
			Handler: unaryHandler(MethodTopPerformers, func(s PortfolioServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.TopPerformers(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skinledger/v1/portfolio.proto",
}

// RegisterPortfolioServiceServer registers srv on s
func RegisterPortfolioServiceServer(s grpc.ServiceRegistrar, srv PortfolioServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the PortfolioService
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a PortfolioService client on an existing connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with a request document and returns the response document
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
