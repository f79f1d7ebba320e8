package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/checkin/internal/checkin/wire"
)

// maxRequestBody caps request bodies for both encodings.  The largest
// request (a registration) is well under 1 KiB.
const maxRequestBody = 4096

const contentTypeProtobuf = "application/x-protobuf"

// isProtobuf reports whether the request body is a protobuf Struct.
func isProtobuf(r *http.Request) bool {
	return isProtobufType(r.Header.Get("Content-Type"))
}

// wantsProtobuf mirrors the request encoding, falling back to Accept for
// requests without a body.
func wantsProtobuf(r *http.Request) bool {
	return isProtobuf(r) || isProtobufType(r.Header.Get("Accept"))
}

func isProtobufType(ct string) bool {
	ct, _, _ = strings.Cut(ct, ";")
	switch strings.TrimSpace(ct) {
	case contentTypeProtobuf, "application/protobuf", "application/octet-stream":
		return true
	default:
		return false
	}
}

// readRequest decodes a JSON or protobuf Struct body into dst.  Unknown
// fields are rejected in both encodings.
func readRequest(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxRequestBody)

	if isProtobuf(r) {
		data, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		var msg structpb.Struct
		if err := proto.Unmarshal(data, &msg); err != nil {
			return err
		}
		return wire.FromStruct(&msg, dst)
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	if wantsProtobuf(r) {
		msg, err := wire.ToStruct(v)
		if err != nil {
			http.Error(w, "proto marshal error", http.StatusInternalServerError)
			return
		}
		writeProto(w, status, msg)
		return
	}
	writeJSON(w, status, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeResponse(w, r, status, wire.Error{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProto marshals msg and writes it with the given HTTP status.
func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		// Fall back to a plain-text error if marshalling fails.
		http.Error(w, "proto marshal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeProtobuf)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
