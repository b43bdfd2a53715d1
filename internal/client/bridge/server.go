package bridge

import (
	"context"
	"net"
	"sync"

	"github.com/dmitrijs2005/syncbox/internal/client/trigger"
	"github.com/dmitrijs2005/syncbox/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Firer starts a named trigger without waiting for it.
type Firer interface {
	FireAsync(ctx context.Context, name string)
}

type Server struct {
	address string
	hub     *Hub
	firer   Firer
	token   string
	logger  logging.Logger

	mu      sync.Mutex
	baseCtx context.Context
}

func NewServer(address string, hub *Hub, firer Firer, token string, l logging.Logger) *Server {
	return &Server{
		address: address,
		hub:     hub,
		firer:   firer,
		token:   token,
		logger:  l.With("module", "bridge_server"),
		baseCtx: context.Background(),
	}
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts bridge connections on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.tokenUnaryInterceptor),
		grpc.ChainStreamInterceptor(s.tokenStreamInterceptor),
	)
	srv.RegisterService(&ServiceDesc, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping bridge server...")
		// Subscribe streams only end when their client leaves.
		srv.Stop()
	}()

	s.logger.Info(ctx, "Starting bridge server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (s *Server) RunSyncNow(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	m, err := FromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if m.Type != TypeRunSyncNow {
		return nil, status.Errorf(codes.InvalidArgument, "unexpected message type %q", m.Type)
	}

	s.mu.Lock()
	base := s.baseCtx
	s.mu.Unlock()

	s.logger.Debug(ctx, "run-now requested")
	s.firer.FireAsync(base, trigger.RunNow)
	return &emptypb.Empty{}, nil
}

func (s *Server) Subscribe(_ *emptypb.Empty, stream grpc.ServerStream) error {
	ctx := stream.Context()
	msgs, cancel := s.hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			out, err := m.ToStruct()
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err := stream.SendMsg(out); err != nil {
				return err
			}
		}
	}
}
