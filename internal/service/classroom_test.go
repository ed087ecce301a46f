package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"classhub.app/api-server/common/id"
	"classhub.app/api-server/core/config"
	"classhub.app/api-server/internal/model"
	"classhub.app/api-server/internal/provider"
	"classhub.app/api-server/internal/service"
)

func ptr[T any](v T) *T { return &v }

var _ = Describe("ClassroomService", func() {
	var (
		ctx        context.Context
		stores     *memStores
		org        *mockOrgProvider
		dispatcher *mockDispatcher
		flags      config.FeatureFlags
		user       *model.User
	)

	newService := func() service.ClassroomService {
		return service.NewClassroomService(stores, stores, org, dispatcher, flags)
	}

	seedClassroom := func(slug string, groupID int64) *model.Classroom {
		classroom := &model.Classroom{
			ID:            id.New(),
			Slug:          slug,
			Title:         slug,
			GroupID:       groupID,
			GroupGlobalID: "gid://gitlab/Group/1",
		}
		Expect(stores.Classrooms().Create(ctx, classroom)).To(Succeed())
		return classroom
	}

	seedMembership := func(classroomID, userID int64) {
		Expect(stores.Memberships().Create(ctx, &model.Membership{
			ID:          id.New(),
			ClassroomID: classroomID,
			UserID:      userID,
		})).To(Succeed())
	}

	seedAssignment := func(classroomID int64, creatorID *int64) *model.Assignment {
		assignment := &model.Assignment{
			ID:          id.New(),
			ClassroomID: classroomID,
			Title:       "hw",
			Slug:        "hw",
			CreatorID:   creatorID,
		}
		Expect(stores.Assignments().Create(ctx, assignment)).To(Succeed())
		return assignment
	}

	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())

		ctx = context.Background()
		stores = newMemStores()
		org = &mockOrgProvider{}
		dispatcher = &mockDispatcher{}
		flags = config.FeatureFlags{}

		user = &model.User{
			ID:             id.New(),
			Name:           "Ada",
			Email:          "ada@example.com",
			ProviderToken:  ptr("glpat-token"),
			ProviderUserID: ptr(int64(7)),
		}
		stores.users[user.ID] = user
	})

	Describe("Authorize", func() {
		It("adds a group admin who is not yet a member", func() {
			classroom := seedClassroom("intro-to-go", 100)
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return true, nil
			}

			got, err := newService().Authorize(ctx, user, "intro-to-go")

			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(classroom.ID))
			members, _ := stores.Memberships().ListByClassroom(ctx, classroom.ID)
			Expect(members).To(HaveLen(1))
			Expect(members[0].UserID).To(Equal(user.ID))
		})

		It("is idempotent for repeated admin access", func() {
			classroom := seedClassroom("intro-to-go", 100)
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return true, nil
			}

			svc := newService()
			for range 3 {
				_, err := svc.Authorize(ctx, user, "intro-to-go")
				Expect(err).NotTo(HaveOccurred())
			}

			members, _ := stores.Memberships().ListByClassroom(ctx, classroom.ID)
			Expect(members).To(HaveLen(1))
		})

		It("never adds a non-admin", func() {
			classroom := seedClassroom("intro-to-go", 100)
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return false, nil
			}

			_, err := newService().Authorize(ctx, user, "intro-to-go")

			Expect(err).To(MatchError(service.ErrUnauthorized))
			members, _ := stores.Memberships().ListByClassroom(ctx, classroom.ID)
			Expect(members).To(BeEmpty())
		})

		It("keeps access for an existing member who lost admin rights", func() {
			classroom := seedClassroom("intro-to-go", 100)
			seedMembership(classroom.ID, user.ID)
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return false, nil
			}

			got, err := newService().Authorize(ctx, user, "intro-to-go")

			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(classroom.ID))
			members, _ := stores.Memberships().ListByClassroom(ctx, classroom.ID)
			Expect(members).To(HaveLen(1))
		})

		It("returns not found for an unknown slug", func() {
			_, err := newService().Authorize(ctx, user, "nope")
			Expect(err).To(MatchError(service.ErrNotFound))
		})

		It("returns not found for a soft-deleted classroom", func() {
			classroom := seedClassroom("intro-to-go", 100)
			Expect(stores.Classrooms().SoftDelete(ctx, classroom.ID)).To(Succeed())

			_, err := newService().Authorize(ctx, user, "intro-to-go")
			Expect(err).To(MatchError(service.ErrNotFound))
		})

		It("maps a rejected token to ErrTokenScope", func() {
			seedClassroom("intro-to-go", 100)
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return false, provider.ErrTokenScope
			}

			_, err := newService().Authorize(ctx, user, "intro-to-go")
			Expect(err).To(MatchError(service.ErrTokenScope))
		})

		It("rejects a user with no provider credential", func() {
			seedClassroom("intro-to-go", 100)
			user.ProviderToken = nil

			_, err := newService().Authorize(ctx, user, "intro-to-go")
			Expect(err).To(MatchError(service.ErrNotConnected))
		})
	})

	Describe("Create", func() {
		BeforeEach(func() {
			org.isAdminFn = func(_ context.Context, _ string, _, groupID int64) (bool, error) {
				return true, nil
			}
			org.groupMetadataFn = func(_ context.Context, _ string, groupID int64) (*provider.Group, error) {
				return &provider.Group{
					ID:       groupID,
					GlobalID: "gid://gitlab/Group/100",
					Name:     "Intro to Go",
					Path:     "intro-to-go",
				}, nil
			}
		})

		It("creates a classroom with provider identifiers and a creator membership", func() {
			classroom, err := newService().Create(ctx, user, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(classroom.GroupID).To(Equal(int64(100)))
			Expect(classroom.GroupGlobalID).NotTo(BeEmpty())
			Expect(classroom.Slug).To(Equal("intro-to-go"))

			members, _ := stores.Memberships().ListByClassroom(ctx, classroom.ID)
			Expect(members).To(HaveLen(1))
			Expect(members[0].UserID).To(Equal(user.ID))
		})

		It("refuses a non-admin and creates nothing", func() {
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return false, nil
			}

			_, err := newService().Create(ctx, user, 100)

			Expect(err).To(MatchError(service.ErrUnauthorized))
			count, _ := stores.Classrooms().CountActive(ctx)
			Expect(count).To(BeZero())
		})

		It("refuses a second classroom for the same group by default", func() {
			seedClassroom("existing", 100)

			_, err := newService().Create(ctx, user, 100)

			Expect(err).To(MatchError(service.ErrClassroomExists))
			count, _ := stores.Classrooms().CountActive(ctx)
			Expect(count).To(Equal(int64(1)))
		})

		It("allows a second classroom when multiple per group are enabled", func() {
			seedClassroom("existing", 100)
			flags.MultipleClassroomsPerOrg = true

			_, err := newService().Create(ctx, user, 100)

			Expect(err).NotTo(HaveOccurred())
			count, _ := stores.Classrooms().CountActive(ctx)
			Expect(count).To(Equal(int64(2)))
		})

		It("suffixes the slug when taken, including by soft-deleted classrooms", func() {
			taken := seedClassroom("intro-to-go", 200)
			Expect(stores.Classrooms().SoftDelete(ctx, taken.ID)).To(Succeed())

			classroom, err := newService().Create(ctx, user, 100)

			Expect(err).NotTo(HaveOccurred())
			Expect(classroom.Slug).To(Equal("intro-to-go-1"))
		})

		It("fails when group metadata is incomplete", func() {
			org.groupMetadataFn = func(_ context.Context, _ string, groupID int64) (*provider.Group, error) {
				return &provider.Group{ID: groupID}, nil
			}

			_, err := newService().Create(ctx, user, 100)

			Expect(err).To(HaveOccurred())
			count, _ := stores.Classrooms().CountActive(ctx)
			Expect(count).To(BeZero())
		})
	})

	Describe("RemoveMember", func() {
		var (
			classroom *model.Classroom
			target    *model.User
		)

		BeforeEach(func() {
			classroom = seedClassroom("intro-to-go", 100)
			seedMembership(classroom.ID, user.ID)

			target = &model.User{ID: id.New(), Name: "Grace", Email: "grace@example.com"}
			stores.users[target.ID] = target
			seedMembership(classroom.ID, target.ID)

			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return true, nil
			}
			org.isOwnerFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return true, nil
			}
		})

		It("removes the member and clears their assignment authorship", func() {
			a1 := seedAssignment(classroom.ID, &target.ID)
			a2 := seedAssignment(classroom.ID, &target.ID)
			kept := seedAssignment(classroom.ID, &user.ID)

			err := newService().RemoveMember(ctx, user, "intro-to-go", target.ID)
			Expect(err).NotTo(HaveOccurred())

			_, memberErr := stores.Memberships().Get(ctx, classroom.ID, target.ID)
			Expect(memberErr).To(HaveOccurred())

			for _, assignmentID := range []int64{a1.ID, a2.ID} {
				got, err := stores.Assignments().GetByID(ctx, assignmentID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.CreatorID).To(BeNil())
			}

			got, err := stores.Assignments().GetByID(ctx, kept.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CreatorID).To(HaveValue(Equal(user.ID)))
		})

		It("returns not found for a non-member", func() {
			stranger := id.New()

			err := newService().RemoveMember(ctx, user, "intro-to-go", stranger)

			Expect(err).To(MatchError(service.ErrNotFound))
			members, _ := stores.Memberships().ListByClassroom(ctx, classroom.ID)
			Expect(members).To(HaveLen(2))
		})

		It("requires owner-level access on the group", func() {
			org.isOwnerFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return false, nil
			}

			err := newService().RemoveMember(ctx, user, "intro-to-go", target.ID)

			Expect(err).To(MatchError(service.ErrUnauthorized))
			members, _ := stores.Memberships().ListByClassroom(ctx, classroom.ID)
			Expect(members).To(HaveLen(2))
		})
	})

	Describe("Destroy", func() {
		var classroom *model.Classroom

		BeforeEach(func() {
			classroom = seedClassroom("intro-to-go", 100)
			seedMembership(classroom.ID, user.ID)
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return true, nil
			}
		})

		It("soft-deletes and enqueues exactly one cleanup job", func() {
			err := newService().Destroy(ctx, user, "intro-to-go")
			Expect(err).NotTo(HaveOccurred())

			_, scopedErr := stores.Classrooms().GetBySlug(ctx, "intro-to-go")
			Expect(scopedErr).To(HaveOccurred())

			unscoped, err := stores.Classrooms().GetBySlugUnscoped(ctx, "intro-to-go")
			Expect(err).NotTo(HaveOccurred())
			Expect(unscoped.DeletedAt).NotTo(BeNil())
			Expect(unscoped.DeletedAt.IsZero()).To(BeFalse())

			Expect(dispatcher.enqueued).To(Equal([]int64{classroom.ID}))

			count, _ := stores.Classrooms().CountActive(ctx)
			Expect(count).To(BeZero())
		})

		It("re-enqueues when destroyed twice", func() {
			svc := newService()
			Expect(svc.Destroy(ctx, user, "intro-to-go")).To(Succeed())

			Expect(svc.Destroy(ctx, user, "intro-to-go")).To(Succeed())

			Expect(dispatcher.enqueued).To(Equal([]int64{classroom.ID, classroom.ID}))
		})

		It("surfaces dispatcher failures", func() {
			dispatcher.err = errors.New("redis down")

			err := newService().Destroy(ctx, user, "intro-to-go")

			Expect(err).To(HaveOccurred())
			Expect(dispatcher.enqueued).To(BeEmpty())
		})

		It("recovers when the enqueue fails after the soft delete", func() {
			dispatcher.err = errors.New("redis down")
			svc := newService()

			Expect(svc.Destroy(ctx, user, "intro-to-go")).NotTo(Succeed())

			unscoped, err := stores.Classrooms().GetBySlugUnscoped(ctx, "intro-to-go")
			Expect(err).NotTo(HaveOccurred())
			Expect(unscoped.DeletedAt).NotTo(BeNil())

			dispatcher.err = nil
			Expect(svc.Destroy(ctx, user, "intro-to-go")).To(Succeed())
			Expect(dispatcher.enqueued).To(Equal([]int64{classroom.ID}))
		})

		It("does not let a non-member resume a destroy", func() {
			svc := newService()
			Expect(svc.Destroy(ctx, user, "intro-to-go")).To(Succeed())

			stranger := &model.User{
				ID:             id.New(),
				ProviderToken:  ptr("glpat-other"),
				ProviderUserID: ptr(int64(8)),
			}
			err := svc.Destroy(ctx, stranger, "intro-to-go")

			Expect(err).To(MatchError(service.ErrNotFound))
			Expect(dispatcher.enqueued).To(HaveLen(1))
		})
	})

	Describe("Groupings", func() {
		BeforeEach(func() {
			seedClassroom("intro-to-go", 100)
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return true, nil
			}
		})

		It("is hidden while the flag is disabled", func() {
			_, err := newService().Groupings(ctx, user, "intro-to-go")
			Expect(err).To(MatchError(service.ErrNotFound))
		})

		It("exposes the classroom once enabled", func() {
			flags.TeamGroupings = true

			classroom, err := newService().Groupings(ctx, user, "intro-to-go")

			Expect(err).NotTo(HaveOccurred())
			Expect(classroom.Slug).To(Equal("intro-to-go"))
		})
	})

	Describe("AvailableGroups", func() {
		It("excludes groups already bound to a classroom", func() {
			seedClassroom("taken", 100)
			org.listGroupsFn = func(_ context.Context, _ string, page, _ int) (*provider.GroupPage, error) {
				return &provider.GroupPage{
					Groups: []provider.Group{
						{ID: 100, Name: "Taken"},
						{ID: 200, Name: "Free"},
					},
					Page:     page,
					NextPage: 2,
					HasNext:  true,
				}, nil
			}

			page, err := newService().AvailableGroups(ctx, user, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(page.Groups).To(HaveLen(1))
			Expect(page.Groups[0].ID).To(Equal(int64(200)))
			Expect(page.HasNext).To(BeTrue())
		})

		It("still lists groups freed by a soft-deleted classroom's group binding", func() {
			classroom := seedClassroom("was-taken", 100)
			Expect(stores.Classrooms().SoftDelete(ctx, classroom.ID)).To(Succeed())
			org.listGroupsFn = func(_ context.Context, _ string, page, _ int) (*provider.GroupPage, error) {
				return &provider.GroupPage{
					Groups: []provider.Group{{ID: 100, Name: "Freed"}},
					Page:   page,
				}, nil
			}

			page, err := newService().AvailableGroups(ctx, user, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(page.Groups).To(HaveLen(1))
		})

		It("requires a provider credential", func() {
			user.ProviderToken = nil

			_, err := newService().AvailableGroups(ctx, user, 1)
			Expect(err).To(MatchError(service.ErrNotConnected))
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			seedClassroom("intro-to-go", 100)
			org.isAdminFn = func(_ context.Context, _ string, _, _ int64) (bool, error) {
				return true, nil
			}
		})

		It("renames the classroom and keeps the slug stable", func() {
			classroom, err := newService().Update(ctx, user, "intro-to-go", "Go 101")

			Expect(err).NotTo(HaveOccurred())
			Expect(classroom.Title).To(Equal("Go 101"))
			Expect(classroom.Slug).To(Equal("intro-to-go"))
			Expect(classroom.UpdatedAt).To(BeTemporally("~", time.Now(), time.Second))
		})
	})
})
