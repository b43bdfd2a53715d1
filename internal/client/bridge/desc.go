package bridge

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "syncbox.bridge.Bridge"

	runSyncNowMethod = "/" + ServiceName + "/RunSyncNow"
	subscribeMethod  = "/" + ServiceName + "/Subscribe"
)

// BridgeServer is implemented by Server.
type BridgeServer interface {
	RunSyncNow(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error)
	Subscribe(in *emptypb.Empty, stream grpc.ServerStream) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunSyncNow", Handler: runSyncNowHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
	Metadata: "bridge",
}

func runSyncNowHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).RunSyncNow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: runSyncNowMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).RunSyncNow(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BridgeServer).Subscribe(in, stream)
}
