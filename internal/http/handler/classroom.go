package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"classhub.app/api-server/internal/http/dto"
	"classhub.app/api-server/internal/http/middleware"
	"classhub.app/api-server/internal/service"
	"github.com/gin-gonic/gin"
)

type ClassroomHandler struct {
	classrooms   service.ClassroomService
	authService  service.AuthService
	isProduction bool
}

func NewClassroomHandler(classrooms service.ClassroomService, authService service.AuthService, isProduction bool) *ClassroomHandler {
	return &ClassroomHandler{
		classrooms:   classrooms,
		authService:  authService,
		isProduction: isProduction,
	}
}

func (h *ClassroomHandler) Index(c *gin.Context) {
	user := middleware.CurrentUser(c)

	classrooms, err := h.classrooms.ListForUser(c.Request.Context(), user)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"classrooms": dto.ToClassroomResponses(classrooms)})
}

// New lists the user's administered groups not yet bound to a classroom,
// paginated through the provider.
func (h *ClassroomHandler) New(c *gin.Context) {
	user := middleware.CurrentUser(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	groups, err := h.classrooms.AvailableGroups(c.Request.Context(), user, page)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupPageResponse(groups))
}

func (h *ClassroomHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req dto.CreateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_id is required"})
		return
	}

	classroom, err := h.classrooms.Create(c.Request.Context(), user, req.GroupID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/classrooms/"+classroom.Slug+"/setup")
}

func (h *ClassroomHandler) Show(c *gin.Context) {
	h.showClassroom(c)
}

// Edit, Invite and Setup expose the same classroom context; the views they
// back differ only client-side.
func (h *ClassroomHandler) Edit(c *gin.Context) {
	h.showClassroom(c)
}

func (h *ClassroomHandler) Invite(c *gin.Context) {
	h.showClassroom(c)
}

func (h *ClassroomHandler) Setup(c *gin.Context) {
	h.showClassroom(c)
}

func (h *ClassroomHandler) showClassroom(c *gin.Context) {
	user := middleware.CurrentUser(c)

	classroom, err := h.classrooms.Authorize(c.Request.Context(), user, c.Param("slug"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"classroom": dto.ToClassroomResponse(classroom)})
}

func (h *ClassroomHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req dto.UpdateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	classroom, err := h.classrooms.Update(c.Request.Context(), user, c.Param("slug"), req.Title)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"classroom": dto.ToClassroomResponse(classroom)})
}

func (h *ClassroomHandler) Destroy(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := h.classrooms.Destroy(c.Request.Context(), user, c.Param("slug")); err != nil {
		h.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/classrooms")
}

// Invitation renders the settings/invitations context: the classroom plus
// its current members.
func (h *ClassroomHandler) Invitation(c *gin.Context) {
	user := middleware.CurrentUser(c)
	slug := c.Param("slug")
	ctx := c.Request.Context()

	classroom, err := h.classrooms.Authorize(ctx, user, slug)
	if err != nil {
		h.renderError(c, err)
		return
	}

	members, err := h.classrooms.Members(ctx, user, slug)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"classroom": dto.ToClassroomResponse(classroom),
		"members":   dto.ToMemberResponses(members),
	})
}

func (h *ClassroomHandler) RemoveMember(c *gin.Context) {
	user := middleware.CurrentUser(c)
	slug := c.Param("slug")

	targetID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := h.classrooms.RemoveMember(c.Request.Context(), user, slug, targetID); err != nil {
		h.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/classrooms/"+slug+"/invitation")
}

func (h *ClassroomHandler) Groupings(c *gin.Context) {
	user := middleware.CurrentUser(c)

	classroom, err := h.classrooms.Groupings(c.Request.Context(), user, c.Param("slug"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"classroom": dto.ToClassroomResponse(classroom)})
}

func (h *ClassroomHandler) renderError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not an administrator of the linked group"})
	case errors.Is(err, service.ErrClassroomExists):
		c.JSON(http.StatusConflict, gin.H{"error": "a classroom already exists for this group"})
	case errors.Is(err, service.ErrNotConnected):
		c.JSON(http.StatusForbidden, gin.H{"error": "connect a provider token first"})
	case errors.Is(err, service.ErrTokenScope):
		// Stale or under-scoped credential is fatal for the session.
		h.signOut(c)
	default:
		slog.ErrorContext(ctx, "classroom request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *ClassroomHandler) signOut(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	if err := h.authService.SignOutUser(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "failed to sign out user", "error", err, "user_id", user.ID)
	}

	c.SetCookie(
		middleware.SessionCookieName,
		"",
		-1,
		"/",
		"",
		h.isProduction,
		true,
	)

	slog.InfoContext(ctx, "user signed out after provider token rejection", "user_id", user.ID)

	c.Redirect(http.StatusFound, "/")
}
