package audit

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode renders a record as a protobuf Struct in its canonical JSON form.
// This is the payload published to Kafka and RabbitMQ.
func Encode(r Record) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"timestamp":  r.Timestamp.UTC().Format(time.RFC3339Nano),
		"action":     r.Action,
		"collection": r.Collection,
		"recordId":   r.RecordID,
		"oldState":   r.OldState,
		"newState":   r.NewState,
		"actor":      r.Actor,
		"message":    r.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("encode audit record: %w", err)
	}
	return protojson.Marshal(s)
}

func Decode(data []byte) (Record, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return Record{}, fmt.Errorf("decode audit record: %w", err)
	}
	fields := s.GetFields()
	str := func(key string) string { return fields[key].GetStringValue() }

	r := Record{
		Action:     str("action"),
		Collection: str("collection"),
		RecordID:   str("recordId"),
		OldState:   str("oldState"),
		NewState:   str("newState"),
		Actor:      str("actor"),
		Message:    str("message"),
	}
	if ts := str("timestamp"); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Record{}, fmt.Errorf("decode audit timestamp: %w", err)
		}
		r.Timestamp = t
	}
	return r, nil
}
