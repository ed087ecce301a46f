package provider

import (
	"context"
	"fmt"
	"net/http"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type gitlabProvider struct {
	baseURL string
}

var _ OrgProvider = (*gitlabProvider)(nil)

func NewGitLab(baseURL string) OrgProvider {
	return &gitlabProvider{baseURL: baseURL}
}

func (p *gitlabProvider) client(token string) (*gitlab.Client, error) {
	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(p.baseURL))
	if err != nil {
		return nil, fmt.Errorf("building gitlab client: %w", err)
	}
	return client, nil
}

func (p *gitlabProvider) CurrentIdentity(ctx context.Context, token string) (*Identity, error) {
	client, err := p.client(token)
	if err != nil {
		return nil, err
	}

	user, resp, err := client.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return nil, mapError(resp, err)
	}

	return &Identity{
		UserID:   int64(user.ID),
		Username: user.Username,
		Name:     user.Name,
	}, nil
}

func (p *gitlabProvider) IsAdmin(ctx context.Context, token string, providerUserID, groupID int64) (bool, error) {
	return p.hasAccess(ctx, token, providerUserID, groupID, gitlab.MaintainerPermissions)
}

func (p *gitlabProvider) IsOwner(ctx context.Context, token string, providerUserID, groupID int64) (bool, error) {
	return p.hasAccess(ctx, token, providerUserID, groupID, gitlab.OwnerPermissions)
}

func (p *gitlabProvider) hasAccess(ctx context.Context, token string, providerUserID, groupID int64, min gitlab.AccessLevelValue) (bool, error) {
	client, err := p.client(token)
	if err != nil {
		return false, err
	}

	member, resp, err := client.GroupMembers.GetGroupMember(groupID, providerUserID, gitlab.WithContext(ctx))
	if err != nil {
		// Not being a member of the group is an expected outcome.
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, mapError(resp, err)
	}

	return member.AccessLevel >= min, nil
}

func (p *gitlabProvider) GroupMetadata(ctx context.Context, token string, groupID int64) (*Group, error) {
	client, err := p.client(token)
	if err != nil {
		return nil, err
	}

	group, resp, err := client.Groups.GetGroup(groupID, &gitlab.GetGroupOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, mapError(resp, err)
	}

	return toGroup(group), nil
}

func (p *gitlabProvider) ListAdministeredGroups(ctx context.Context, token string, page, perPage int) (*GroupPage, error) {
	client, err := p.client(token)
	if err != nil {
		return nil, err
	}

	groups, resp, err := client.Groups.ListGroups(&gitlab.ListGroupsOptions{
		ListOptions: gitlab.ListOptions{
			Page:    int64(page),
			PerPage: int64(perPage),
		},
		MinAccessLevel: gitlab.Ptr(gitlab.MaintainerPermissions),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, mapError(resp, err)
	}

	result := &GroupPage{
		Groups:   make([]Group, 0, len(groups)),
		Page:     page,
		NextPage: int(resp.NextPage),
		HasNext:  resp.NextPage > 0,
	}
	for _, g := range groups {
		result.Groups = append(result.Groups, *toGroup(g))
	}
	return result, nil
}

func toGroup(g *gitlab.Group) *Group {
	return &Group{
		ID:       int64(g.ID),
		GlobalID: fmt.Sprintf("gid://gitlab/Group/%d", g.ID),
		Name:     g.Name,
		Path:     g.Path,
		FullPath: g.FullPath,
		WebURL:   g.WebURL,
	}
}

func mapError(resp *gitlab.Response, err error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrTokenScope
		case http.StatusNotFound:
			return ErrNotFound
		}
	}
	return err
}
