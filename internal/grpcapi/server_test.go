package grpcapi_test

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/BrandonDHaskell/checkin/internal/checkin/service"
	"github.com/BrandonDHaskell/checkin/internal/checkin/store/memory"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
	"github.com/BrandonDHaskell/checkin/internal/grpcapi"
)

func newTestClient(t *testing.T) *grpcapi.Client {
	t.Helper()

	registry := service.NewRegistry(memory.NewEmployeeStore())
	ledger := service.NewLedger(registry, memory.NewAccessEventStore())
	desk := service.NewDesk(registry, ledger, zerolog.Nop())

	lis := bufconn.Listen(1 << 20)
	gs := grpcapi.NewGRPCServer(desk, zerolog.Nop())
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return grpcapi.NewClient(conn)
}

func TestGRPC_RegisterLookupScan(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	reg, err := c.Register(ctx, types.RegistrationRequest{Identifier: "AABBCCDD", Name: "Ana Ruiz", Role: "Cashier"})
	require.NoError(t, err)
	assert.Equal(t, "AABBCCDD", reg.Identifier)
	assert.NotEmpty(t, reg.RecordID)

	rec, err := c.Lookup(ctx, "aa:bb:cc:dd")
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", rec.Name)
	assert.Equal(t, reg.RecordID, rec.RecordID)

	ev, err := c.RecordAttempt(ctx, types.ScanRequest{Identifier: []int{0xAA, 0xBB, 0xCC, 0xDD}})
	require.NoError(t, err)
	assert.Equal(t, types.EventGranted, ev.EventType)
	assert.Equal(t, "Cashier", ev.EmployeeRole)

	denied, err := c.RecordAttempt(ctx, types.ScanRequest{Identifier: "DEADBEEF", Direction: "exit"})
	require.NoError(t, err)
	assert.Equal(t, types.EventDeniedUnregistered, denied.EventType)
	assert.Equal(t, types.DirectionExit, denied.Direction)

	events, err := c.ListEvents(ctx, grpcapi.EventsRequest{After: ev.Sequence})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, denied.Sequence, events[0].Sequence)
}

func TestGRPC_StatusCodes(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Register(ctx, types.RegistrationRequest{Identifier: "AABB", Name: "Ana", Role: "Cashier"})
	require.NoError(t, err)

	cases := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"duplicate", func() error {
			_, err := c.Register(ctx, types.RegistrationRequest{Identifier: "aa:bb", Name: "Bea", Role: "Manager"})
			return err
		}, codes.AlreadyExists},
		{"blank role", func() error {
			_, err := c.Register(ctx, types.RegistrationRequest{Identifier: "CCDD", Name: "Bea", Role: " "})
			return err
		}, codes.InvalidArgument},
		{"synthetic", func() error {
			_, err := c.Register(ctx, types.RegistrationRequest{Identifier: "", Name: "Bea", Role: "Manager"})
			return err
		}, codes.FailedPrecondition},
		{"missing", func() error {
			_, err := c.Lookup(ctx, "DEADBEEF")
			return err
		}, codes.NotFound},
		{"bad direction", func() error {
			_, err := c.RecordAttempt(ctx, types.ScanRequest{Identifier: "AABB", Direction: "up"})
			return err
		}, codes.InvalidArgument},
		{"negative cursor", func() error {
			_, err := c.ListEvents(ctx, grpcapi.EventsRequest{After: -1})
			return err
		}, codes.InvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, status.Code(tc.call()))
		})
	}
}
