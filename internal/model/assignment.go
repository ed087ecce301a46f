package model

import "time"

type Assignment struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	// CreatorID references the member who authored the assignment. Cleared
	// when that member is removed from the classroom; never points at a
	// non-member.
	CreatorID   *int64 `json:"creator_id,omitempty"`
	ID          int64  `json:"id"`
	ClassroomID int64  `json:"classroom_id"`
}
