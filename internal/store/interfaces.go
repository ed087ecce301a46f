package store

import (
	"context"
	"errors"

	"classhub.app/api-server/internal/model"
)

var ErrNotFound = errors.New("not found")

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByWorkOSID(ctx context.Context, workosID string) (*model.User, error)
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
	SetProviderCredential(ctx context.Context, id int64, token string, providerUserID int64) error
	ClearProviderCredential(ctx context.Context, id int64) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
}

type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetValid(ctx context.Context, id int64) (*model.Session, error) // checks expiry
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) error
}

type ClassroomStore interface {
	GetByID(ctx context.Context, id int64) (*model.Classroom, error)
	GetBySlug(ctx context.Context, slug string) (*model.Classroom, error)
	// GetBySlugUnscoped also returns soft-deleted classrooms.
	GetBySlugUnscoped(ctx context.Context, slug string) (*model.Classroom, error)
	GetByIDUnscoped(ctx context.Context, id int64) (*model.Classroom, error)
	GetByGroupID(ctx context.Context, groupID int64) (*model.Classroom, error)
	Create(ctx context.Context, classroom *model.Classroom) error
	Update(ctx context.Context, classroom *model.Classroom) error
	SoftDelete(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.Classroom, error)
	// ListBoundGroupIDs returns group IDs of all non-deleted classrooms.
	ListBoundGroupIDs(ctx context.Context) ([]int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type MembershipStore interface {
	Get(ctx context.Context, classroomID, userID int64) (*model.Membership, error)
	Create(ctx context.Context, membership *model.Membership) error
	Delete(ctx context.Context, classroomID, userID int64) error
	DeleteByClassroom(ctx context.Context, classroomID int64) error
	ListByClassroom(ctx context.Context, classroomID int64) ([]model.Membership, error)
}

type AssignmentStore interface {
	GetByID(ctx context.Context, id int64) (*model.Assignment, error)
	Create(ctx context.Context, assignment *model.Assignment) error
	Delete(ctx context.Context, id int64) error
	DeleteByClassroom(ctx context.Context, classroomID int64) error
	ListByClassroom(ctx context.Context, classroomID int64) ([]model.Assignment, error)
	// ClearCreator nulls the creator reference on every assignment in the
	// classroom authored by the given user.
	ClearCreator(ctx context.Context, classroomID, creatorID int64) error
}

// Stores bundles the per-entity stores sharing one connection or transaction.
type Stores interface {
	Users() UserStore
	Sessions() SessionStore
	Classrooms() ClassroomStore
	Memberships() MembershipStore
	Assignments() AssignmentStore
}

// TxRunner executes fn against stores bound to a single transaction,
// committing on nil and rolling back on error.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(Stores) error) error
}
