package types

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// Scanners may speak google.protobuf.Struct instead of JSON, over HTTP
// (application/x-protobuf) or gRPC.  Field names match the JSON tags.

func ScanRequestFromStruct(s *structpb.Struct) ScanRequest {
	f := s.GetFields()
	return ScanRequest{
		Payload:   f["payload"].GetStringValue(),
		Location:  f["location"].GetStringValue(),
		ScannerID: f["scanner_id"].GetStringValue(),
	}
}

func (r ScanRequest) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"payload":    structpb.NewStringValue(r.Payload),
		"location":   structpb.NewStringValue(r.Location),
		"scanner_id": structpb.NewStringValue(r.ScannerID),
	}}
}

func (r ScanResponse) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"ok":          structpb.NewBoolValue(r.OK),
		"entry_type":  structpb.NewStringValue(r.EntryType),
		"person_id":   structpb.NewStringValue(r.PersonID),
		"person_name": structpb.NewStringValue(r.PersonName),
		"message":     structpb.NewStringValue(r.Message),
		"timestamp":   structpb.NewStringValue(r.Timestamp),
	}}
}

func ScanResponseFromStruct(s *structpb.Struct) ScanResponse {
	f := s.GetFields()
	return ScanResponse{
		OK:         f["ok"].GetBoolValue(),
		EntryType:  f["entry_type"].GetStringValue(),
		PersonID:   f["person_id"].GetStringValue(),
		PersonName: f["person_name"].GetStringValue(),
		Message:    f["message"].GetStringValue(),
		Timestamp:  f["timestamp"].GetStringValue(),
	}
}

func (t TodayStats) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"date":             structpb.NewStringValue(t.Date),
		"entries":          structpb.NewNumberValue(float64(t.Entries)),
		"exits":            structpb.NewNumberValue(float64(t.Exits)),
		"currently_inside": structpb.NewNumberValue(float64(t.CurrentlyInside)),
		"active_persons":   structpb.NewNumberValue(float64(t.ActivePersons)),
	}}
}

func TodayStatsFromStruct(s *structpb.Struct) TodayStats {
	f := s.GetFields()
	return TodayStats{
		Date:            f["date"].GetStringValue(),
		Entries:         int(f["entries"].GetNumberValue()),
		Exits:           int(f["exits"].GetNumberValue()),
		CurrentlyInside: int(f["currently_inside"].GetNumberValue()),
		ActivePersons:   int(f["active_persons"].GetNumberValue()),
	}
}
