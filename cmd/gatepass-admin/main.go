// Command gatepass-admin is the operator tool: it mints API tokens, checks
// credentials, renders QR images, migrates the database and talks to the
// door scanner gRPC service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/gatepass/internal/auth"
	"github.com/BrandonDHaskell/gatepass/internal/config"
	"github.com/BrandonDHaskell/gatepass/internal/db"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/qrimage"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
	"github.com/BrandonDHaskell/gatepass/internal/grpcapi"
)

const usage = `usage: gatepass-admin <command> [flags]

commands:
  token    mint an admin or scanner API token
  verify   check a credential payload against the configured secret
  qr       render a payload as a QR PNG
  migrate  apply database migrations
  scan     submit a payload to the door scanner service
  stats    print today's counters from the door scanner service
`

var errUsage = errors.New("bad usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "token":
		return cmdToken(rest, out)
	case "verify":
		return cmdVerify(rest, out)
	case "qr":
		return cmdQR(rest, out)
	case "migrate":
		return cmdMigrate(ctx, rest, out)
	case "scan":
		return cmdScan(ctx, rest, out)
	case "stats":
		return cmdStats(ctx, rest, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func loadConfig(path string) (*config.Config, error) {
	cfg, errs := config.Load(path)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// keysFor derives the same keys the server does for cfg.
func keysFor(cfg *config.Config) (credential.Keys, error) {
	secret := cfg.Secret
	if secret == "" {
		secret = credential.DevSecret
	}
	return credential.DeriveKeys(secret)
}

func cmdToken(args []string, out io.Writer) error {
	fs := newFlags("token")
	configPath := fs.String("config", os.Getenv("GATEPASS_CONFIG"), "config file")
	roleName := fs.String("role", "admin", "admin or scanner")
	subject := fs.String("subject", "", "who the token is for, e.g. an operator or door name")
	ttl := fs.Duration("ttl", 12*time.Hour, "token lifetime; 0 for none")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *subject == "" {
		return errors.New("-subject is required")
	}
	role, err := auth.ParseRole(*roleName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	key := []byte(cfg.JWTSecret)
	if len(key) == 0 {
		keys, err := keysFor(cfg)
		if err != nil {
			return err
		}
		key = keys.Tokens
	}

	tok, err := auth.NewTokens(key).Issue(*subject, role, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}

func cmdVerify(args []string, out io.Writer) error {
	fs := newFlags("verify")
	configPath := fs.String("config", os.Getenv("GATEPASS_CONFIG"), "config file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errors.New("verify takes exactly one payload argument")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	keys, err := keysFor(cfg)
	if err != nil {
		return err
	}
	signer := credential.NewSigner(keys.Signing, credential.WithValidity(cfg.CredentialValidity()))

	p, err := credential.Parse(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "person:  %s (%s)\n", p.PersonID, credential.MaskName(p.Name))
	fmt.Fprintf(out, "expires: %s\n", signer.ExpiresAt(p).In(cfg.Location()).Format(time.RFC3339))
	if err := signer.Verify(p); err != nil {
		fmt.Fprintf(out, "status:  rejected (%v)\n", err)
		return err
	}
	fmt.Fprintln(out, "status:  valid")
	return nil
}

func cmdQR(args []string, out io.Writer) error {
	fs := newFlags("qr")
	size := fs.Int("size", 512, "image size in pixels")
	output := fs.String("out", "qr.png", "output file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errors.New("qr takes exactly one payload argument")
	}

	png, err := qrimage.PNG(fs.Arg(0), qrimage.ClampSize(*size))
	if err != nil {
		return err
	}
	if err := os.WriteFile(*output, png, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s (%d bytes)\n", *output, len(png))
	return nil
}

func cmdMigrate(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlags("migrate")
	configPath := fs.String("config", os.Getenv("GATEPASS_CONFIG"), "config file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	applied, err := db.AppliedVersions(ctx, sqlDB)
	if err != nil {
		return err
	}
	versions := make([]int, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	fmt.Fprintf(out, "%s: schema versions %v\n", cfg.DBPath, versions)
	return nil
}

// dial connects to the door scanner service with a bearer token.
func dial(addr, token string) (*grpc.ClientConn, error) {
	if token == "" {
		token = os.Getenv("GATEPASS_TOKEN")
	}
	if token == "" {
		return nil, errors.New("-token or GATEPASS_TOKEN is required")
	}
	return grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(grpcapi.BearerCredentials(token)),
	)
}

func cmdScan(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlags("scan")
	addr := fs.String("addr", "localhost:9090", "gRPC address")
	token := fs.String("token", "", "scanner or admin token")
	location := fs.String("location", "", "door location")
	scanner := fs.String("scanner", "gatepass-admin", "scanner id")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errors.New("scan takes exactly one payload argument")
	}

	conn, err := dial(*addr, *token)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	res, err := grpcapi.NewDoorScannerClient(conn).Scan(ctx, types.ScanRequest{
		Payload:   strings.TrimSpace(fs.Arg(0)),
		Location:  *location,
		ScannerID: *scanner,
	}.Struct())
	if err != nil {
		return err
	}
	r := types.ScanResponseFromStruct(res)
	fmt.Fprintf(out, "%s %s %s\n", r.Timestamp, r.EntryType, r.Message)
	return nil
}

func cmdStats(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlags("stats")
	addr := fs.String("addr", "localhost:9090", "gRPC address")
	token := fs.String("token", "", "scanner or admin token")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	conn, err := dial(*addr, *token)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	res, err := grpcapi.NewDoorScannerClient(conn).TodayStats(ctx, &structpb.Struct{})
	if err != nil {
		return err
	}
	s := types.TodayStatsFromStruct(res)
	fmt.Fprintf(out, "date:    %s\nentries: %d\nexits:   %d\ninside:  %d\nactive:  %d\n",
		s.Date, s.Entries, s.Exits, s.CurrentlyInside, s.ActivePersons)
	return nil
}
