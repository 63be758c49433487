package grpcapi_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/gatepass/internal/auth"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/scanguard"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store/memory"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
	"github.com/BrandonDHaskell/gatepass/internal/grpcapi"
)

type env struct {
	signer  *credential.Signer
	persons *memory.PersonStore
	tokens  *auth.Tokens
	lis     *bufconn.Listener
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &env{
		signer:  credential.NewSigner([]byte("grpc-test-key")),
		persons: memory.NewPersonStore(),
		tokens:  auth.NewTokens([]byte("grpc-test-jwt")),
		lis:     bufconn.Listen(1 << 20),
	}
	scan := service.NewScanService(service.ScanDeps{
		Signer:  e.signer,
		Persons: e.persons,
		Entries: memory.NewEntryLogStore(),
		Guard:   scanguard.NewMemory(scanguard.DefaultWindow),
		Logger:  logger,
	})

	gs := grpcapi.NewGRPCServer(grpcapi.Dependencies{Logger: logger, Tokens: e.tokens, Scan: scan})
	go func() { _ = gs.Serve(e.lis) }()
	t.Cleanup(gs.Stop)
	return e
}

func (e *env) client(t *testing.T, token string) *grpcapi.DoorScannerClient {
	t.Helper()
	opts := []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return e.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(grpcapi.BearerCredentials(token)))
	}
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return grpcapi.NewDoorScannerClient(conn)
}

func (e *env) person(t *testing.T) store.PersonRecord {
	t.Helper()
	now := time.Now().UTC()
	p := store.PersonRecord{
		ID: "A1B2C3D4E5F6", Name: "Kim Minsu", Phone: "01012345678",
		NotificationStatus: store.StatusSuccess, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	p.QRPayload = e.signer.Issue(p.ID, p.Name, p.Phone).String()
	require.NoError(t, e.persons.InsertPerson(t.Context(), p))
	return p
}

func TestScan_EnterThenDuplicate(t *testing.T) {
	e := newEnv(t)
	p := e.person(t)
	tok, _ := e.tokens.Issue("door-1", auth.RoleScanner, 0)
	c := e.client(t, tok)

	req := types.ScanRequest{Payload: p.QRPayload, ScannerID: "door-1"}.Struct()
	out, err := c.Scan(t.Context(), req)
	require.NoError(t, err)

	got := types.ScanResponseFromStruct(out)
	assert.True(t, got.OK)
	assert.Equal(t, "ENTER", got.EntryType)
	assert.Equal(t, p.ID, got.PersonID)

	_, err = c.Scan(t.Context(), req)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	stats, err := c.TodayStats(t.Context(), &structpb.Struct{})
	require.NoError(t, err)
	st := types.TodayStatsFromStruct(stats)
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, 1, st.CurrentlyInside)
}

func TestScan_ErrorCodes(t *testing.T) {
	e := newEnv(t)
	p := e.person(t)
	tok, _ := e.tokens.Issue("door-1", auth.RoleScanner, 0)
	c := e.client(t, tok)

	cases := []struct {
		name    string
		payload string
		want    codes.Code
	}{
		{"empty", "", codes.InvalidArgument},
		{"malformed", "a|b", codes.InvalidArgument},
		{"forged", credential.NewSigner([]byte("other")).Issue(p.ID, p.Name, p.Phone).String(), codes.PermissionDenied},
		{"unknown", e.signer.Issue("FFFFFFFFFFFF", "Nobody Here", "01000000000").String(), codes.NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Scan(t.Context(), types.ScanRequest{Payload: tc.payload}.Struct())
			assert.Equal(t, tc.want, status.Code(err))
		})
	}
}

func TestAuth(t *testing.T) {
	e := newEnv(t)
	e.person(t)

	_, err := e.client(t, "").TodayStats(t.Context(), &structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = e.client(t, "not-a-jwt").TodayStats(t.Context(), &structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	admin, _ := e.tokens.Issue("operator", auth.RoleAdmin, time.Hour)
	_, err = e.client(t, admin).TodayStats(t.Context(), &structpb.Struct{})
	assert.NoError(t, err)
}
