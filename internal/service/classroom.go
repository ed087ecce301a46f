package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"classhub.app/api-server/common"
	"classhub.app/api-server/common/id"
	"classhub.app/api-server/core/config"
	"classhub.app/api-server/internal/jobs"
	"classhub.app/api-server/internal/model"
	"classhub.app/api-server/internal/provider"
	"classhub.app/api-server/internal/store"
)

var (
	ErrNotFound        = errors.New("classroom not found")
	ErrUnauthorized    = errors.New("not an administrator of the linked group")
	ErrClassroomExists = errors.New("a classroom already exists for this group")
	ErrNotConnected    = errors.New("no provider credential on account")
	// ErrTokenScope means the user's provider token was rejected mid-request.
	// The caller must sign the user out.
	ErrTokenScope = errors.New("provider token invalid or lacks required scope")
)

const availableGroupsPerPage = 24

type ClassroomService interface {
	// Authorize resolves a classroom by slug and reconciles the user's
	// membership against their admin status on the linked group. Admins are
	// added as members when missing; non-admins are never added and may only
	// proceed if they already hold a membership.
	Authorize(ctx context.Context, user *model.User, slug string) (*model.Classroom, error)
	Create(ctx context.Context, user *model.User, groupID int64) (*model.Classroom, error)
	Update(ctx context.Context, user *model.User, slug, title string) (*model.Classroom, error)
	Destroy(ctx context.Context, user *model.User, slug string) error
	RemoveMember(ctx context.Context, user *model.User, slug string, targetUserID int64) error
	ListForUser(ctx context.Context, user *model.User) ([]model.Classroom, error)
	AvailableGroups(ctx context.Context, user *model.User, page int) (*provider.GroupPage, error)
	Members(ctx context.Context, user *model.User, slug string) ([]model.Membership, error)
	// Groupings returns the classroom for the team-grouping view, or
	// ErrNotFound when the feature is disabled.
	Groupings(ctx context.Context, user *model.User, slug string) (*model.Classroom, error)
}

type classroomService struct {
	stores     store.Stores
	tx         store.TxRunner
	org        provider.OrgProvider
	dispatcher jobs.Dispatcher
	flags      config.FeatureFlags
}

func NewClassroomService(
	stores store.Stores,
	tx store.TxRunner,
	org provider.OrgProvider,
	dispatcher jobs.Dispatcher,
	flags config.FeatureFlags,
) ClassroomService {
	return &classroomService{
		stores:     stores,
		tx:         tx,
		org:        org,
		dispatcher: dispatcher,
		flags:      flags,
	}
}

func (s *classroomService) Authorize(ctx context.Context, user *model.User, slug string) (*model.Classroom, error) {
	classroom, err := s.stores.Classrooms().GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting classroom: %w", err)
	}

	isAdmin, err := s.isAdmin(ctx, user, classroom.GroupID)
	if err != nil {
		return nil, err
	}

	_, err = s.stores.Memberships().Get(ctx, classroom.ID, user.ID)
	isMember := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("getting membership: %w", err)
	}

	if isAdmin && !isMember {
		membership := &model.Membership{
			ID:          id.New(),
			ClassroomID: classroom.ID,
			UserID:      user.ID,
		}
		if err := s.stores.Memberships().Create(ctx, membership); err != nil {
			return nil, fmt.Errorf("adding membership: %w", err)
		}
		slog.InfoContext(ctx, "admin added to classroom",
			"classroom_id", classroom.ID,
			"user_id", user.ID,
		)
		isMember = true
	}

	if !isMember {
		return nil, ErrUnauthorized
	}

	return classroom, nil
}

func (s *classroomService) Create(ctx context.Context, user *model.User, groupID int64) (*model.Classroom, error) {
	isAdmin, err := s.isAdmin(ctx, user, groupID)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, ErrUnauthorized
	}

	if !s.flags.MultipleClassroomsPerOrg {
		_, err := s.stores.Classrooms().GetByGroupID(ctx, groupID)
		if err == nil {
			return nil, ErrClassroomExists
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("checking existing classroom: %w", err)
		}
	}

	group, err := s.org.GroupMetadata(ctx, *user.ProviderToken, groupID)
	if err != nil {
		return nil, s.mapProviderError(err)
	}
	if group.ID == 0 || group.GlobalID == "" {
		return nil, fmt.Errorf("incomplete group metadata for group %d", groupID)
	}

	var created *model.Classroom
	err = s.tx.WithTx(ctx, func(stores store.Stores) error {
		slug, err := s.ensureClassroomSlug(ctx, stores.Classrooms(), group.Name)
		if err != nil {
			return err
		}

		classroom := &model.Classroom{
			ID:            id.New(),
			Slug:          slug,
			Title:         group.Name,
			GroupID:       group.ID,
			GroupGlobalID: group.GlobalID,
		}
		if err := stores.Classrooms().Create(ctx, classroom); err != nil {
			return fmt.Errorf("creating classroom: %w", err)
		}

		membership := &model.Membership{
			ID:          id.New(),
			ClassroomID: classroom.ID,
			UserID:      user.ID,
		}
		if err := stores.Memberships().Create(ctx, membership); err != nil {
			return fmt.Errorf("creating membership: %w", err)
		}

		created = classroom
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "classroom created",
		"classroom_id", created.ID,
		"slug", created.Slug,
		"group_id", created.GroupID,
		"user_id", user.ID,
	)

	return created, nil
}

func (s *classroomService) Update(ctx context.Context, user *model.User, slug, title string) (*model.Classroom, error) {
	classroom, err := s.Authorize(ctx, user, slug)
	if err != nil {
		return nil, err
	}

	classroom.Title = title
	if err := s.stores.Classrooms().Update(ctx, classroom); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating classroom: %w", err)
	}

	return classroom, nil
}

func (s *classroomService) Destroy(ctx context.Context, user *model.User, slug string) error {
	classroom, err := s.Authorize(ctx, user, slug)
	if errors.Is(err, ErrNotFound) {
		// The soft delete may have committed on an earlier attempt whose
		// enqueue failed. Resume it instead of stranding the classroom.
		return s.resumeDestroy(ctx, user, slug)
	}
	if err != nil {
		return err
	}

	if err := s.stores.Classrooms().SoftDelete(ctx, classroom.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("soft-deleting classroom: %w", err)
	}

	if err := s.dispatcher.EnqueueDestroyClassroom(ctx, classroom.ID); err != nil {
		return fmt.Errorf("enqueueing destroy job: %w", err)
	}

	slog.InfoContext(ctx, "classroom scheduled for destruction",
		"classroom_id", classroom.ID,
		"slug", classroom.Slug,
		"user_id", user.ID,
	)

	return nil
}

// resumeDestroy re-enqueues the cleanup job for a classroom that is already
// soft-deleted. The worker is idempotent, so a duplicate job is harmless.
// Memberships survive until the worker runs, so the caller must still hold
// one to resume.
func (s *classroomService) resumeDestroy(ctx context.Context, user *model.User, slug string) error {
	classroom, err := s.stores.Classrooms().GetBySlugUnscoped(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("getting classroom: %w", err)
	}
	if !classroom.Deleted() {
		return ErrNotFound
	}

	if _, err := s.stores.Memberships().Get(ctx, classroom.ID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("getting membership: %w", err)
	}

	if err := s.dispatcher.EnqueueDestroyClassroom(ctx, classroom.ID); err != nil {
		return fmt.Errorf("enqueueing destroy job: %w", err)
	}

	slog.InfoContext(ctx, "destroy re-enqueued for soft-deleted classroom",
		"classroom_id", classroom.ID,
		"slug", classroom.Slug,
		"user_id", user.ID,
	)

	return nil
}

func (s *classroomService) RemoveMember(ctx context.Context, user *model.User, slug string, targetUserID int64) error {
	classroom, err := s.Authorize(ctx, user, slug)
	if err != nil {
		return err
	}

	isOwner, err := s.isOwner(ctx, user, classroom.GroupID)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrUnauthorized
	}

	// "Not a member" and "no such user" are deliberately indistinguishable.
	if _, err := s.stores.Memberships().Get(ctx, classroom.ID, targetUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("getting membership: %w", err)
	}

	err = s.tx.WithTx(ctx, func(stores store.Stores) error {
		if err := stores.Memberships().Delete(ctx, classroom.ID, targetUserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("deleting membership: %w", err)
		}
		if err := stores.Assignments().ClearCreator(ctx, classroom.ID, targetUserID); err != nil {
			return fmt.Errorf("clearing assignment creators: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "member removed from classroom",
		"classroom_id", classroom.ID,
		"target_user_id", targetUserID,
		"acting_user_id", user.ID,
	)

	return nil
}

func (s *classroomService) ListForUser(ctx context.Context, user *model.User) ([]model.Classroom, error) {
	classrooms, err := s.stores.Classrooms().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing classrooms: %w", err)
	}
	return classrooms, nil
}

func (s *classroomService) AvailableGroups(ctx context.Context, user *model.User, page int) (*provider.GroupPage, error) {
	if !user.Connected() {
		return nil, ErrNotConnected
	}
	if page < 1 {
		page = 1
	}

	groupPage, err := s.org.ListAdministeredGroups(ctx, *user.ProviderToken, page, availableGroupsPerPage)
	if err != nil {
		return nil, s.mapProviderError(err)
	}

	boundIDs, err := s.stores.Classrooms().ListBoundGroupIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing bound groups: %w", err)
	}
	bound := make(map[int64]struct{}, len(boundIDs))
	for _, groupID := range boundIDs {
		bound[groupID] = struct{}{}
	}

	available := groupPage.Groups[:0]
	for _, g := range groupPage.Groups {
		if _, taken := bound[g.ID]; !taken {
			available = append(available, g)
		}
	}
	groupPage.Groups = available

	return groupPage, nil
}

func (s *classroomService) Members(ctx context.Context, user *model.User, slug string) ([]model.Membership, error) {
	classroom, err := s.Authorize(ctx, user, slug)
	if err != nil {
		return nil, err
	}

	members, err := s.stores.Memberships().ListByClassroom(ctx, classroom.ID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

func (s *classroomService) Groupings(ctx context.Context, user *model.User, slug string) (*model.Classroom, error) {
	if !s.flags.TeamGroupings {
		return nil, ErrNotFound
	}
	return s.Authorize(ctx, user, slug)
}

func (s *classroomService) isAdmin(ctx context.Context, user *model.User, groupID int64) (bool, error) {
	if !user.Connected() {
		return false, ErrNotConnected
	}
	isAdmin, err := s.org.IsAdmin(ctx, *user.ProviderToken, *user.ProviderUserID, groupID)
	if err != nil {
		return false, s.mapProviderError(err)
	}
	return isAdmin, nil
}

func (s *classroomService) isOwner(ctx context.Context, user *model.User, groupID int64) (bool, error) {
	if !user.Connected() {
		return false, ErrNotConnected
	}
	isOwner, err := s.org.IsOwner(ctx, *user.ProviderToken, *user.ProviderUserID, groupID)
	if err != nil {
		return false, s.mapProviderError(err)
	}
	return isOwner, nil
}

func (s *classroomService) mapProviderError(err error) error {
	if errors.Is(err, provider.ErrTokenScope) {
		return ErrTokenScope
	}
	if errors.Is(err, provider.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("provider lookup: %w", err)
}

func (s *classroomService) ensureClassroomSlug(ctx context.Context, classrooms store.ClassroomStore, name string) (string, error) {
	base, err := common.Slugify(name, "classroom")
	if err != nil {
		return "", fmt.Errorf("generating slug: %w", err)
	}

	// Fast path
	if _, err := classrooms.GetBySlugUnscoped(ctx, base); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return base, nil
		}
		return "", fmt.Errorf("checking slug availability: %w", err)
	}

	// Add numeric suffix until available
	for i := 1; i <= 20; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		_, err := classrooms.GetBySlugUnscoped(ctx, candidate)
		if errors.Is(err, store.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking slug availability: %w", err)
		}
	}

	return "", fmt.Errorf("unable to find available slug for %q", base)
}
