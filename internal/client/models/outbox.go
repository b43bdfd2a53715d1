package models

import (
	"fmt"
	"strings"
)

// Op is the kind of remote mutation an OutboxItem replays.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ParseOp accepts the three known operations, case-insensitively.
func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToLower(strings.TrimSpace(s))); op {
	case OpCreate, OpUpdate, OpDelete:
		return op, nil
	default:
		return "", fmt.Errorf("unknown outbox op %q", s)
	}
}

func (o Op) Valid() bool {
	_, err := ParseOp(string(o))
	return err == nil
}

// OutboxItem is a pending mutation waiting to be replayed against the
// Remote API. Items are replayed in CreatedAt order, ties broken by ID.
type OutboxItem struct {
	ID int64
	Op Op

	// TaskID references the Record the mutation is about. Required for
	// update and delete; set for creates issued by this client as well.
	TaskID *int64

	// Payload is the Record snapshot taken at enqueue time. Nil for deletes.
	Payload *Payload

	// CreatedAt is the enqueue time in unix milliseconds.
	CreatedAt int64

	// IdempotencyKey is sent with creates so a replay after a lost response
	// does not produce a second remote entity.
	IdempotencyKey string

	// RemoteID is captured for deletes, since the Record is gone by replay.
	RemoteID *int64

	Attempts    int
	LastError   string
	Quarantined bool
}

// RecordID resolves the local Record the item refers to.
func (i OutboxItem) RecordID() (int64, bool) {
	if i.TaskID != nil {
		return *i.TaskID, true
	}
	if i.Payload != nil && i.Payload.ID != 0 {
		return i.Payload.ID, true
	}
	return 0, false
}
