package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.GetStringValue())
}

func boolField(s *structpb.Struct, key string, def bool) bool {
	if s == nil {
		return def
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return def
	}
	if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
		return def
	}
	return v.GetBoolValue()
}

// ids reads the named uuid fields, validating required and optional ones in one pass.
type ids struct {
	required []string
	optional []string
}

func (f ids) parse(s *structpb.Struct) (map[string]uuid.UUID, error) {
	v := common.NewValidator()
	for _, key := range f.required {
		v.Field(key, stringField(s, key), common.Required, common.UUID)
	}
	for _, key := range f.optional {
		v.Field(key, stringField(s, key), common.OptionalUUID)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	out := make(map[string]uuid.UUID)
	for _, key := range append(append([]string{}, f.required...), f.optional...) {
		if raw := stringField(s, key); raw != "" {
			out[key] = uuid.MustParse(raw)
		}
	}
	return out, nil
}

func optionalID(m map[string]uuid.UUID, key string) *uuid.UUID {
	id, ok := m[key]
	if !ok {
		return nil
	}
	return &id
}

func dateField(s *structpb.Struct, key string) (*time.Time, error) {
	raw := stringField(s, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("%s invalid (YYYY-MM-DD): %v", key, err)
	}
	return &t, nil
}

// toStruct converts any JSON-marshalable value into a Struct. structpb only
// accepts plain maps and []any, so the value takes a JSON round trip.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return structpb.NewStruct(m)
}
