package rpc

import (
	"context"
	"fmt"

	"github.com/msto63/mbasic/internal/frontend/service"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote mbasic.v1.Frontend
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an established connection
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Execute runs code remotely. Rejections such as blank code come back as
// a response with Success false; limit violations come back as errors.
func (c *Client) Execute(ctx context.Context, code string) (*service.Response, error) {
	out, err := c.call(ctx, MethodExecute, code)
	if err != nil {
		return nil, err
	}
	var resp service.Response
	if err := fromStruct(out, &resp); err != nil {
		return nil, fmt.Errorf("decode execute response: %w", err)
	}
	return &resp, nil
}

// Tokenize lexes code remotely
func (c *Client) Tokenize(ctx context.Context, code string) (*service.TokenizeResponse, error) {
	out, err := c.call(ctx, MethodTokenize, code)
	if err != nil {
		return nil, err
	}
	var resp service.TokenizeResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, fmt.Errorf("decode tokenize response: %w", err)
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, method, code string) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"code": code})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
