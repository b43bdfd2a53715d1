package bridge

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TypeRunSyncNow = "RUN_SYNC_NOW"
	TypeSyncDone   = "SYNC_DONE"
)

var ErrBadMessage = errors.New("malformed bridge message")

type Message struct {
	Type  string
	Count int
}

func (m Message) ToStruct() (*structpb.Struct, error) {
	fields := map[string]any{"type": m.Type}
	if m.Type == TypeSyncDone {
		fields["count"] = m.Count
	}
	return structpb.NewStruct(fields)
}

func FromStruct(s *structpb.Struct) (Message, error) {
	if s == nil {
		return Message{}, ErrBadMessage
	}
	f := s.GetFields()
	t, ok := f["type"]
	if !ok || t.GetStringValue() == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrBadMessage)
	}
	m := Message{Type: t.GetStringValue()}
	if c, ok := f["count"]; ok {
		if _, isNum := c.GetKind().(*structpb.Value_NumberValue); !isNum {
			return Message{}, fmt.Errorf("%w: count is not a number", ErrBadMessage)
		}
		m.Count = int(c.GetNumberValue())
	}
	return m, nil
}
