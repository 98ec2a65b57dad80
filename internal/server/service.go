package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "receipts.v1.ReceiptProcessing"

// ReceiptProcessingServer is the gRPC surface of the daemon. Requests and
// responses are google.protobuf.Struct so clients need no generated stubs.
type ReceiptProcessingServer interface {
	// ProcessReceipt runs the pipeline for a stored image and returns the report.
	ProcessReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// IngestFile stores a local image and optionally processes it.
	IngestFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// IngestDirectory stores every supported image under a directory.
	IngestDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// ExportHistory returns the uploader's purchase history as XLSX bytes.
	ExportHistory(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error)
}

func RegisterReceiptProcessingServer(s grpc.ServiceRegistrar, srv ReceiptProcessingServer) {
	s.RegisterService(&ReceiptProcessingServiceDesc, srv)
}

// ReceiptProcessingServiceDesc is the grpc.ServiceDesc for ReceiptProcessingServer.
var ReceiptProcessingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReceiptProcessingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ProcessReceipt", ReceiptProcessingServer.ProcessReceipt),
		unary("IngestFile", ReceiptProcessingServer.IngestFile),
		unary("IngestDirectory", ReceiptProcessingServer.IngestDirectory),
		unary("ExportHistory", ReceiptProcessingServer.ExportHistory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "receipts/v1/receipt_processing.proto",
}

func unary[Resp any](method string, call func(ReceiptProcessingServer, context.Context, *structpb.Struct) (Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReceiptProcessingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ReceiptProcessingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls ReceiptProcessing over a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ProcessReceipt(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ProcessReceipt", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) IngestFile(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/IngestFile", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) IngestDirectory(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/IngestDirectory", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ExportHistory(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ExportHistory", req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
