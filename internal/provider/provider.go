// Package provider talks to the external GitLab instance that classrooms are
// bound to. All calls run with the requesting user's personal access token.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrTokenScope means the token was rejected or lacks the scope needed
	// for the call. Callers treat this as fatal for the session.
	ErrTokenScope = errors.New("provider token rejected or missing required scope")
	ErrNotFound   = errors.New("not found on provider")
)

// Identity is the provider-side user a token belongs to.
type Identity struct {
	Username string
	Name     string
	UserID   int64
}

// Group is an external group a classroom can be bound to.
type Group struct {
	Name     string
	Path     string
	FullPath string
	WebURL   string
	// GlobalID is the provider's global relay identifier, e.g.
	// "gid://gitlab/Group/42".
	GlobalID string
	ID       int64
}

// GroupPage is one page of groups plus cursor info for the next request.
type GroupPage struct {
	Groups   []Group
	Page     int
	NextPage int
	HasNext  bool
}

type OrgProvider interface {
	// CurrentIdentity resolves the user a token belongs to, validating the
	// token in the process.
	CurrentIdentity(ctx context.Context, token string) (*Identity, error)
	// IsAdmin reports whether the user holds maintainer access or above on
	// the group. Non-membership is not an error.
	IsAdmin(ctx context.Context, token string, providerUserID, groupID int64) (bool, error)
	// IsOwner reports whether the user holds owner access on the group.
	IsOwner(ctx context.Context, token string, providerUserID, groupID int64) (bool, error)
	// GroupMetadata fetches the group's identifiers and display fields.
	GroupMetadata(ctx context.Context, token string, groupID int64) (*Group, error)
	// ListAdministeredGroups pages through groups where the user holds
	// maintainer access or above.
	ListAdministeredGroups(ctx context.Context, token string, page, perPage int) (*GroupPage, error)
}
