package types_test

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/types"
)

func TestScanRequest_StructOverTheWire(t *testing.T) {
	in := types.ScanRequest{Payload: "A|B|C|1|sig", Location: "Main Gate", ScannerID: "door-1"}

	b, err := proto.Marshal(in.Struct())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := types.ScanRequestFromStruct(&s); got != in {
		t.Fatalf("expected %+v, got %+v", in, got)
	}
}

func TestScanRequestFromStruct_MissingAndWrongTypes(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"payload": 42.0})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	if got := types.ScanRequestFromStruct(s); got != (types.ScanRequest{}) {
		t.Fatalf("non-string fields should read as empty, got %+v", got)
	}
	if got := types.ScanRequestFromStruct(nil); got != (types.ScanRequest{}) {
		t.Fatalf("nil struct should read as empty, got %+v", got)
	}
}

func TestTodayStats_Struct(t *testing.T) {
	in := types.TodayStats{Date: "2026-03-02", Entries: 3, Exits: 1, CurrentlyInside: 2, ActivePersons: 3}
	if got := types.TodayStatsFromStruct(in.Struct()); got != in {
		t.Fatalf("expected %+v, got %+v", in, got)
	}
}
