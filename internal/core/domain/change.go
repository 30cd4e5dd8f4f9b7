package domain

import "time"

// ChangeType is the kind of row-level mutation carried by the change feed.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// TodoChange is one change-feed event. New is nil for deletes; Old may be nil
// when the backend does not provide a pre-image.
type TodoChange struct {
	Type       ChangeType `json:"type"`
	OwnerID    string     `json:"user_id"`
	New        *Todo      `json:"new,omitempty"`
	Old        *Todo      `json:"old,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Title returns the title of the affected todo, preferring the new row.
func (c TodoChange) Title() string {
	if c.New != nil {
		return c.New.Title
	}
	if c.Old != nil {
		return c.Old.Title
	}
	return ""
}
