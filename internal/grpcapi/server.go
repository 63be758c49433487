package grpcapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/gatepass/internal/auth"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
)

type Dependencies struct {
	Logger *slog.Logger
	Tokens *auth.Tokens
	Scan   *service.ScanService
}

// Server adapts ScanService to the DoorScanner RPCs.
type Server struct {
	logger *slog.Logger
	scan   *service.ScanService
}

// NewGRPCServer returns a grpc.Server with DoorScanner registered behind
// bearer-token auth and request logging.
func NewGRPCServer(d Dependencies, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		loggingInterceptor(d.Logger),
		authInterceptor(d.Tokens),
	))
	gs := grpc.NewServer(opts...)
	RegisterDoorScannerServer(gs, &Server{logger: d.Logger, scan: d.Scan})
	return gs
}

func (s *Server) Scan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := types.ScanRequestFromStruct(in)
	if req.Payload == "" {
		return nil, status.Error(codes.InvalidArgument, "payload is required")
	}
	resp, err := s.scan.Process(ctx, req)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return resp.Struct(), nil
}

func (s *Server) TodayStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	st, err := s.scan.TodayStats(ctx)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	return st.Struct(), nil
}

func (s *Server) mapError(ctx context.Context, err error) error {
	msg := service.ScanMessage(err)
	switch {
	case errors.Is(err, service.ErrMalformed), errors.Is(err, service.ErrInvalidLocation):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, service.ErrBadSignature),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrIssuedInFuture),
		errors.Is(err, service.ErrPersonInactive):
		return status.Error(codes.PermissionDenied, msg)
	case errors.Is(err, service.ErrSuperseded):
		return status.Error(codes.FailedPrecondition, msg)
	case errors.Is(err, service.ErrUnknownPerson):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, service.ErrDuplicateScan):
		return status.Error(codes.AlreadyExists, msg)
	}
	s.logger.ErrorContext(ctx, "grpc scan failed", slog.Any("err", err))
	return status.Error(codes.Internal, "unexpected server error")
}

func authInterceptor(tokens *auth.Tokens) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var raw string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("authorization"); len(v) > 0 {
				raw = auth.BearerToken(v[0])
			}
		}
		c, err := tokens.Authorize(raw, auth.RoleScanner, auth.RoleAdmin)
		switch {
		case errors.Is(err, auth.ErrForbidden):
			return nil, status.Error(codes.PermissionDenied, err.Error())
		case err != nil:
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(auth.WithClaims(ctx, c), req)
	}
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		level := slog.LevelInfo
		if code == codes.Internal || code == codes.Unknown {
			level = slog.LevelError
		} else if code != codes.OK {
			level = slog.LevelWarn
		}
		logger.LogAttrs(ctx, level, "grpc request",
			slog.String("method", info.FullMethod),
			slog.String("code", code.String()),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()))
		return resp, err
	}
}

// BearerCredentials attaches a bearer token to every call.  Insecure
// transports are allowed so scanners on a LAN can use plain TCP.
type BearerCredentials string

func (b BearerCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (BearerCredentials) RequireTransportSecurity() bool { return false }
