package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
	"github.com/BrandonDHaskell/checkin/internal/checkin/wire"
)

// Client is a typed client for checkin.v1.CheckIn.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Register(ctx context.Context, req types.RegistrationRequest) (types.RegistrationResponse, error) {
	var resp types.RegistrationResponse
	err := c.call(ctx, "Register", req, &resp)
	return resp, err
}

func (c *Client) Lookup(ctx context.Context, identifier any) (types.EmployeeRecord, error) {
	var rec types.EmployeeRecord
	err := c.call(ctx, "Lookup", LookupRequest{Identifier: identifier}, &rec)
	return rec, err
}

func (c *Client) RecordAttempt(ctx context.Context, req types.ScanRequest) (types.AccessEvent, error) {
	var ev types.AccessEvent
	err := c.call(ctx, "RecordAttempt", req, &ev)
	return ev, err
}

func (c *Client) ListEvents(ctx context.Context, req EventsRequest) ([]types.AccessEvent, error) {
	var resp types.EventsResponse
	if err := c.call(ctx, "ListEvents", req, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	msg, err := wire.ToStruct(in)
	if err != nil {
		return err
	}
	reply := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, msg, reply); err != nil {
		return err
	}
	return wire.FromStruct(reply, out)
}
