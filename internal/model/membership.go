package model

import "time"

// Membership grants a user management access to a classroom. Rows are only
// ever created for users verified as admins of the classroom's group.
type Membership struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          int64     `json:"id"`
	ClassroomID int64     `json:"classroom_id"`
	UserID      int64     `json:"user_id"`
}
