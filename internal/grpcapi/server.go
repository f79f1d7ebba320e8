package grpcapi

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/checkin/internal/checkin/service"
	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
	"github.com/BrandonDHaskell/checkin/internal/checkin/wire"
)

// LookupRequest and EventsRequest are the Struct shapes of the Lookup and
// ListEvents calls.
type LookupRequest struct {
	Identifier any `json:"identifier"`
}

type EventsRequest struct {
	After      int64  `json:"after,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type Server struct {
	desk *service.Desk
	log  zerolog.Logger
}

func NewServer(desk *service.Desk, log zerolog.Logger) *Server {
	return &Server{desk: desk, log: log}
}

// NewGRPCServer returns a grpc.Server with the CheckIn service and access
// logging installed.
func NewGRPCServer(desk *service.Desk, log zerolog.Logger) *grpc.Server {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(log)))
	RegisterCheckInServer(gs, NewServer(desk, log))
	return gs
}

func (s *Server) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req types.RegistrationRequest
	if err := wire.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	resp, err := s.desk.SubmitRegistration(ctx, req.Identifier, req.Name, req.Role, req.AllowSynthetic)
	if err != nil {
		return nil, s.toStatus("register", err)
	}
	return s.reply(resp)
}

func (s *Server) Lookup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req LookupRequest
	if err := wire.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}

	rec, err := s.desk.Lookup(ctx, req.Identifier)
	if err != nil {
		return nil, s.toStatus("lookup", err)
	}
	return s.reply(rec)
}

func (s *Server) RecordAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req types.ScanRequest
	if err := wire.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	dir, ok := types.ParseDirection(req.Direction)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "direction must be entry or exit")
	}

	return s.reply(s.desk.SubmitScan(ctx, req.Identifier, dir))
}

func (s *Server) ListEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req EventsRequest
	if err := wire.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	if req.After < 0 || req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "after and limit must be non-negative")
	}

	events, err := s.desk.Events(ctx, store.EventQuery{
		AfterSequence: req.After,
		Identifier:    req.Identifier,
		Limit:         req.Limit,
	})
	if err != nil {
		return nil, s.toStatus("list events", err)
	}
	return s.reply(types.EventsResponse{Events: events})
}

func (s *Server) reply(v any) (*structpb.Struct, error) {
	out, err := wire.ToStruct(v)
	if err != nil {
		s.log.Error().Err(err).Msg("encode reply")
		return nil, status.Error(codes.Internal, "unexpected server error")
	}
	return out, nil
}

func (s *Server) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrSyntheticIdentifier):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg(op)
		return status.Error(codes.Internal, "unexpected server error")
	}
}

func loggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("dur", time.Since(start)).
			Msg("grpc")
		return resp, err
	}
}
