package dto

import (
	"time"

	"classhub.app/api-server/internal/model"
	"classhub.app/api-server/internal/provider"
)

type CreateClassroomRequest struct {
	GroupID int64 `json:"group_id,string" binding:"required"`
}

type UpdateClassroomRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

type ConnectProviderRequest struct {
	Token string `json:"token" binding:"required,min=8"`
}

type ClassroomResponse struct {
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	GroupGlobalID string     `json:"group_global_id"`
	ID            int64      `json:"id,string"`
	GroupID       int64      `json:"group_id,string"`
}

func ToClassroomResponse(c *model.Classroom) *ClassroomResponse {
	return &ClassroomResponse{
		ID:            c.ID,
		Slug:          c.Slug,
		Title:         c.Title,
		GroupID:       c.GroupID,
		GroupGlobalID: c.GroupGlobalID,
		DeletedAt:     c.DeletedAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func ToClassroomResponses(classrooms []model.Classroom) []ClassroomResponse {
	result := make([]ClassroomResponse, len(classrooms))
	for i := range classrooms {
		result[i] = *ToClassroomResponse(&classrooms[i])
	}
	return result
}

type MemberResponse struct {
	CreatedAt time.Time `json:"created_at"`
	UserID    int64     `json:"user_id,string"`
}

func ToMemberResponses(members []model.Membership) []MemberResponse {
	result := make([]MemberResponse, len(members))
	for i, m := range members {
		result[i] = MemberResponse{UserID: m.UserID, CreatedAt: m.CreatedAt}
	}
	return result
}

type GroupResponse struct {
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
	WebURL   string `json:"web_url"`
	GlobalID string `json:"global_id"`
	ID       int64  `json:"id,string"`
}

type GroupPageResponse struct {
	Groups   []GroupResponse `json:"groups"`
	Page     int             `json:"page"`
	NextPage int             `json:"next_page,omitempty"`
	HasNext  bool            `json:"has_next"`
}

func ToGroupPageResponse(page *provider.GroupPage) *GroupPageResponse {
	groups := make([]GroupResponse, len(page.Groups))
	for i, g := range page.Groups {
		groups[i] = GroupResponse{
			ID:       g.ID,
			Name:     g.Name,
			FullPath: g.FullPath,
			WebURL:   g.WebURL,
			GlobalID: g.GlobalID,
		}
	}
	return &GroupPageResponse{
		Groups:   groups,
		Page:     page.Page,
		NextPage: page.NextPage,
		HasNext:  page.HasNext,
	}
}
