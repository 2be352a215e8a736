// Package rpc adapts usecases to gRPC services whose messages are google.protobuf.Struct
// documents carrying the dto JSON shapes.
package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/fekuna/omnipos-production-service/internal/apperr"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Decode fills dst from req. A nil req leaves dst untouched.
func Decode(req *structpb.Struct, dst interface{}) error {
	if req == nil {
		return nil
	}
	raw, err := protojson.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.NewValidation("body", "json", err.Error(), nil)
	}
	return nil
}

// Encode renders v as a Struct. v must marshal to a JSON object.
func Encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("failed to build response struct: %w", err)
	}
	return out, nil
}
