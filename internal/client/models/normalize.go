package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// legacyPayload accepts both the current shape and the older one that
// carried the title under "text".
type legacyPayload struct {
	ID        *int64  `json:"id"`
	Title     *string `json:"title"`
	Text      *string `json:"text"`
	Notes     *string `json:"notes"`
	Completed *bool   `json:"completed"`
	CreatedAt *int64  `json:"created_at"`
	UpdatedAt *int64  `json:"updated_at"`

	// camelCase spellings written by early clients
	CreatedAtCamel *int64 `json:"createdAt"`
	UpdatedAtCamel *int64 `json:"updatedAt"`
}

// NormalizePayload decodes a stored payload, mapping legacy fields onto the
// current shape: "text" becomes the title when no title is present, notes
// default to empty, completed to false, and a missing updated_at falls back
// to created_at.
func NormalizePayload(raw []byte) (Payload, error) {
	var lp legacyPayload
	if err := json.Unmarshal(raw, &lp); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}

	var p Payload
	if lp.ID != nil {
		p.ID = *lp.ID
	}
	switch {
	case lp.Title != nil && strings.TrimSpace(*lp.Title) != "":
		p.Title = *lp.Title
	case lp.Text != nil:
		p.Title = *lp.Text
	case lp.Title != nil:
		p.Title = *lp.Title
	}
	if lp.Notes != nil {
		p.Notes = *lp.Notes
	}
	if lp.Completed != nil {
		p.Completed = *lp.Completed
	}
	p.CreatedAt = firstSet(lp.CreatedAt, lp.CreatedAtCamel)
	p.UpdatedAt = firstSet(lp.UpdatedAt, lp.UpdatedAtCamel)
	if p.UpdatedAt == 0 {
		p.UpdatedAt = p.CreatedAt
	}
	return p, nil
}

// NormalizeRecord applies the same defaults to a Record read from storage.
func NormalizeRecord(r Record) Record {
	if r.UpdatedAt == 0 {
		r.UpdatedAt = r.CreatedAt
	}
	if r.RemoteID != nil && *r.RemoteID == 0 {
		r.RemoteID = nil
	}
	return r
}

func firstSet(vals ...*int64) int64 {
	for _, v := range vals {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}
