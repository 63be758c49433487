// Package grpcapi serves the door scanner RPCs.  Messages are
// google.protobuf.Struct with the same field names as the JSON API, so no
// generated code is needed on either side.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName      = "gatepass.v1.DoorScanner"
	ScanMethod       = "/" + ServiceName + "/Scan"
	TodayStatsMethod = "/" + ServiceName + "/TodayStats"
)

type DoorScannerServer interface {
	Scan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TodayStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var DoorScannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DoorScannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Scan", Handler: unaryHandler(ScanMethod, DoorScannerServer.Scan)},
		{MethodName: "TodayStats", Handler: unaryHandler(TodayStatsMethod, DoorScannerServer.TodayStats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gatepass/v1/door_scanner.proto",
}

func RegisterDoorScannerServer(s grpc.ServiceRegistrar, srv DoorScannerServer) {
	s.RegisterService(&DoorScannerServiceDesc, srv)
}

type structMethod func(DoorScannerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DoorScannerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DoorScannerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// DoorScannerClient calls a DoorScanner service.
type DoorScannerClient struct {
	cc grpc.ClientConnInterface
}

func NewDoorScannerClient(cc grpc.ClientConnInterface) *DoorScannerClient {
	return &DoorScannerClient{cc: cc}
}

func (c *DoorScannerClient) Scan(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScanMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DoorScannerClient) TodayStats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TodayStatsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
