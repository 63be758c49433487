package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxRequestBody caps protobuf and JSON request bodies.  The largest body
// is a settings update carrying a 2000-character template.
const maxRequestBody = 16 << 10

// isProtobuf reports whether the request body is a protobuf message.
// Scanners send "application/x-protobuf".
func isProtobuf(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct == "application/x-protobuf" ||
		ct == "application/protobuf" ||
		ct == "application/octet-stream"
}

// wantsProtobuf reports whether the client asked for a protobuf reply.
func wantsProtobuf(r *http.Request) bool {
	a := r.Header.Get("Accept")
	return a == "application/x-protobuf" || a == "application/protobuf" || (a == "" && isProtobuf(r))
}

// readStruct reads a google.protobuf.Struct body.
func readStruct(r *http.Request) (*structpb.Struct, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return nil, err
	}
	var msg structpb.Struct
	if err := proto.Unmarshal(body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// readJSON decodes a JSON body, rejecting unknown fields.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
