package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is the foreground side of the bridge.
type Client struct {
	conn    *grpc.ClientConn
	token   string
	backoff func() retry.Backoff
}

type ClientOption func(*Client)

func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithBackoff sets the reconnect policy used by Listen.
func WithBackoff(f func() retry.Backoff) ClientOption {
	return func(c *Client) { c.backoff = f }
}

func DefaultBackoff() retry.Backoff {
	return retry.WithCappedDuration(5*time.Second, retry.NewExponential(100*time.Millisecond))
}

// Dial prepares a connection to the daemon. The connection is lazy, so Dial
// succeeds even when no daemon is running.
func Dial(address string, opts []ClientOption, dialOpts ...grpc.DialOption) (*Client, error) {
	dialOpts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, dialOpts...)
	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, err
	}

	c := &Client{conn: conn, backoff: DefaultBackoff}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, TokenMetadataKey, c.token)
}

// RunSyncNow asks the daemon to start a sync pass.
func (c *Client) RunSyncNow(ctx context.Context) error {
	in, err := Message{Type: TypeRunSyncNow}.ToStruct()
	if err != nil {
		return err
	}
	return c.conn.Invoke(c.outgoing(ctx), runSyncNowMethod, in, new(emptypb.Empty))
}

// Listen delivers daemon messages to fn until ctx is done, reconnecting
// whenever the stream drops. An authentication failure ends it.
func (c *Client) Listen(ctx context.Context, fn func(Message)) error {
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		err := c.listenOnce(ctx, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if status.Code(err) == codes.Unauthenticated {
			return err
		}
		return retry.RetryableError(err)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (c *Client) listenOnce(ctx context.Context, fn func(Message)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.conn.NewStream(c.outgoing(ctx), &ServiceDesc.Streams[0], subscribeMethod)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			return err
		}
		m, err := FromStruct(out)
		if err != nil {
			continue
		}
		fn(m)
	}
}
