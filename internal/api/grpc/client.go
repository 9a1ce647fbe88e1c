package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/m-zajac/orgcontributors/internal/app"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the contributors service.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient creates new Client instance.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{
		conn: conn,
	}
}

// Load starts loading job on the server and calls onReply for every received update.
// Empty variant means server's default. Zero credentials mean server credentials are used.
// Returns after the terminal reply or error.
func (c *Client) Load(
	ctx context.Context,
	org string,
	variant string,
	creds app.Credentials,
	onReply func(Reply),
) error {
	req, err := structpb.NewStruct(map[string]interface{}{
		"org":     org,
		"variant": variant,
	})
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if !creds.IsZero() {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", basicAuth(creds))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], loadMethod)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		reply, err := parseReply(msg)
		if err != nil {
			return fmt.Errorf("reading reply: %w", err)
		}
		onReply(reply)
	}
}

// Variants returns names of loading strategies supported by the server.
func (c *Client) Variants(ctx context.Context) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, variantsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		names = append(names, v.GetStringValue())
	}

	return names, nil
}
