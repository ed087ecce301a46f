package model

import "time"

// Classroom is a course bound to an external GitLab group. Admin status on
// that group gates all local management rights.
type Classroom struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// DeletedAt marks a soft-deleted classroom. Scoped queries exclude rows
	// where it is set; hard cleanup happens in the background worker.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	// GroupGlobalID is the provider's global relay identifier for the group,
	// e.g. "gid://gitlab/Group/42".
	GroupGlobalID string `json:"group_global_id"`
	ID            int64  `json:"id"`
	GroupID       int64  `json:"group_id"`
}

func (c *Classroom) Deleted() bool {
	return c.DeletedAt != nil
}
