package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/data"
	"github.com/ncobase/taskflow/data/repository"
	"github.com/ncobase/taskflow/pkg/email"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/pkg/nanoid"
	"github.com/ncobase/taskflow/structs"
)

// TeamService handles teams, memberships and invitations.
type TeamService struct {
	cfg      *config.Config
	teams    repository.TeamRepository
	users    repository.UserRepository
	sender   email.Sender
	activity *ActivityService
	pub      Publisher
	logger   *logger.Logger
}

// NewTeamService creates a new team service instance.
func NewTeamService(cfg *config.Config, d *data.Data, sender email.Sender, activity *ActivityService, pub Publisher, log *logger.Logger) *TeamService {
	return &TeamService{
		cfg:      cfg,
		teams:    d.TeamRepo,
		users:    d.UserRepo,
		sender:   sender,
		activity: activity,
		pub:      pub,
		logger:   log,
	}
}

// load fetches a team and checks the user belongs to it.
func (s *TeamService) load(ctx context.Context, userID, teamID string) (*structs.Team, primitive.ObjectID, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, primitive.NilObjectID, err
	}

	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, primitive.NilObjectID, notFoundf("no team with id %s", teamID)
		}
		return nil, primitive.NilObjectID, err
	}
	if !team.IsActive {
		return nil, primitive.NilObjectID, notFoundf("no team with id %s", teamID)
	}
	if !team.HasAccess(user) {
		return nil, primitive.NilObjectID, forbiddenf("you are not a member of this team")
	}
	return team, user, nil
}

// requireManage checks the user holds the manage_team permission.
func (s *TeamService) requireManage(team *structs.Team, user primitive.ObjectID) error {
	perms, ok := team.PermissionsFor(user)
	if !ok || !perms.ManageTeam {
		return forbiddenf("you do not have permission to manage this team")
	}
	return nil
}

// memberIDs returns the owner plus every member.
func memberIDs(team *structs.Team) []primitive.ObjectID {
	ids := []primitive.ObjectID{team.CreatedBy}
	for _, m := range team.Members {
		ids = append(ids, m.User)
	}
	return ids
}

func (s *TeamService) record(ctx context.Context, t structs.ActivityType, actor primitive.ObjectID, team *structs.Team, target *primitive.ObjectID, recipients []primitive.ObjectID) {
	teamRef := team.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:       t,
		User:       actor,
		Team:       &teamRef,
		TargetUser: target,
		Metadata:   map[string]any{"name": team.Name},
	}, recipients)
}

func (s *TeamService) publish(team *structs.Team) {
	s.pub.Publish(structs.TeamRoom(team.ID.Hex()), newEvent(structs.EventTeamUpdated, team))
}

// Create creates a team. The creator becomes the owner and is not added as
// a member row.
func (s *TeamService) Create(ctx context.Context, userID string, body *structs.CreateTeamBody) (*structs.Team, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	team := &structs.Team{
		Name:        body.Name,
		Description: body.Description,
		Avatar:      body.Avatar,
		CreatedBy:   user,
		Members:     []structs.TeamMember{},
		IsActive:    true,
	}

	created, err := s.teams.Create(ctx, team)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityTeamCreated, user, created, nil, nil)
	return created, nil
}

// List returns every active team the user owns or belongs to.
func (s *TeamService) List(ctx context.Context, userID string) ([]*structs.Team, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	teams, err := s.teams.FindByUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []*structs.Team{}
	}
	return teams, nil
}

// Get returns one team the user belongs to.
func (s *TeamService) Get(ctx context.Context, userID, teamID string) (*structs.Team, error) {
	team, _, err := s.load(ctx, userID, teamID)
	return team, err
}

// Update updates team metadata. Requires the manage_team permission.
func (s *TeamService) Update(ctx context.Context, userID, teamID string, body *structs.UpdateTeamBody) (*structs.Team, error) {
	team, user, err := s.load(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(team, user); err != nil {
		return nil, err
	}

	if body.Name != nil {
		team.Name = *body.Name
	}
	if body.Description != nil {
		team.Description = *body.Description
	}
	if body.Avatar != nil {
		team.Avatar = *body.Avatar
	}

	updated, err := s.teams.Replace(ctx, team)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityTeamUpdated, user, updated, nil, memberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// Delete deletes a team. Only the owner may delete.
func (s *TeamService) Delete(ctx context.Context, userID, teamID string) error {
	team, user, err := s.load(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if !team.IsOwner(user) {
		return forbiddenf("only the team owner can delete it")
	}

	if err := s.teams.Delete(ctx, team.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("no team with id %s", teamID)
		}
		return err
	}

	s.record(ctx, structs.ActivityTeamDeleted, user, team, nil, memberIDs(team))
	s.publish(team)
	return nil
}

// AddMember adds an existing account directly to the team. Requires the
// manage_team permission.
func (s *TeamService) AddMember(ctx context.Context, userID, teamID string, body *structs.AddTeamMemberBody) (*structs.Team, error) {
	team, user, err := s.load(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(team, user); err != nil {
		return nil, err
	}

	newMember, err := parseObjectID(body.UserID, "user")
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, body.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, notFoundf("no user with id %s", body.UserID)
		}
		return nil, err
	}
	if team.IsOwner(newMember) || team.Member(newMember) != nil {
		return nil, conflictf("user is already in the team")
	}

	role := body.Role
	if role == "" {
		role = structs.RoleMember
	}
	team.Members = append(team.Members, structs.TeamMember{
		User:        newMember,
		Role:        role,
		Permissions: structs.PermissionsForRole(role),
		JoinedAt:    time.Now(),
		InvitedBy:   user,
	})

	updated, err := s.teams.Replace(ctx, team)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityTeamMemberAdded, user, updated, &newMember, memberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// UpdateMember changes a member's role, refreshing the permission bag.
// Requires the manage_team permission; the owner's role is fixed.
func (s *TeamService) UpdateMember(ctx context.Context, userID, teamID, memberID string, body *structs.UpdateTeamMemberBody) (*structs.Team, error) {
	team, user, err := s.load(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(team, user); err != nil {
		return nil, err
	}

	target, err := parseObjectID(memberID, "member")
	if err != nil {
		return nil, err
	}
	if team.IsOwner(target) {
		return nil, invalidf("the owner's role cannot be changed")
	}

	member := team.Member(target)
	if member == nil {
		return nil, notFoundf("no member with id %s", memberID)
	}
	member.Role = body.Role
	member.Permissions = structs.PermissionsForRole(body.Role)

	updated, err := s.teams.Replace(ctx, team)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityTeamMemberRoleUpdated, user, updated, &target, memberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// RemoveMember removes a member. Members may remove themselves; anyone
// else needs the manage_team permission. The owner cannot be removed.
func (s *TeamService) RemoveMember(ctx context.Context, userID, teamID, memberID string) (*structs.Team, error) {
	team, user, err := s.load(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	target, err := parseObjectID(memberID, "member")
	if err != nil {
		return nil, err
	}
	if team.IsOwner(target) {
		return nil, invalidf("the owner cannot be removed from the team")
	}
	if target != user {
		if err := s.requireManage(team, user); err != nil {
			return nil, err
		}
	}

	kept := team.Members[:0]
	found := false
	for _, m := range team.Members {
		if m.User == target {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return nil, notFoundf("no member with id %s", memberID)
	}
	team.Members = kept

	updated, err := s.teams.Replace(ctx, team)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityTeamMemberRemoved, user, updated, &target, append(memberIDs(updated), target))
	s.publish(updated)
	return updated, nil
}

// Invite sends (or resends) an email invitation. A pending invitation for
// the same email is replaced. Requires the manage_team permission.
func (s *TeamService) Invite(ctx context.Context, userID, teamID string, body *structs.InviteTeamMemberBody) (*structs.Team, error) {
	team, user, err := s.load(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(team, user); err != nil {
		return nil, err
	}

	if existing, err := s.users.FindByEmail(ctx, body.Email); err == nil {
		if team.IsOwner(existing.ID) || team.Member(existing.ID) != nil {
			return nil, conflictf("user is already in the team")
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	role := body.Role
	if role == "" {
		role = structs.RoleMember
	}
	invitation := structs.TeamInvitation{
		Email:     body.Email,
		Role:      role,
		Token:     nanoid.Token(),
		Status:    structs.InvitationPending,
		ExpiresAt: time.Now().Add(structs.InvitationTTL),
		InvitedBy: user,
		CreatedAt: time.Now(),
	}

	if pending := team.PendingInvitation(body.Email); pending != nil {
		*pending = invitation
	} else {
		team.Invitations = append(team.Invitations, invitation)
	}

	updated, err := s.teams.Replace(ctx, team)
	if err != nil {
		return nil, err
	}

	if s.sender != nil {
		_, err := s.sender.SendTemplateEmail(body.Email, email.Template{
			Subject:  fmt.Sprintf("You have been invited to join %s", updated.Name),
			Template: "team-invitation",
			Keyword:  "Join Team",
			URL:      fmt.Sprintf("%s://%s/teams/join?token=%s", s.cfg.Protocol, s.cfg.Domain, invitation.Token),
			Data:     map[string]any{"team": updated.Name, "role": role},
		})
		if err != nil {
			s.logger.Warn(ctx, "failed to send team invitation email", "email", body.Email, "error", err)
		}
	}

	s.record(ctx, structs.ActivityTeamInvitationSent, user, updated, nil, nil)
	s.publish(updated)
	return updated, nil
}

// findInvitation resolves an invitation token to its team and invitation
// row. Expired pending invitations are flagged and persisted.
func (s *TeamService) findInvitation(ctx context.Context, token string) (*structs.Team, *structs.TeamInvitation, error) {
	team, err := s.teams.FindByInvitationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundf("invitation not found")
		}
		return nil, nil, err
	}

	var invitation *structs.TeamInvitation
	for i := range team.Invitations {
		if team.Invitations[i].Token == token {
			invitation = &team.Invitations[i]
			break
		}
	}
	if invitation == nil {
		return nil, nil, notFoundf("invitation not found")
	}
	if invitation.Status != structs.InvitationPending {
		return nil, nil, notFoundf("invitation is invalid or already processed")
	}
	if time.Now().After(invitation.ExpiresAt) {
		invitation.Status = structs.InvitationExpired
		if _, err := s.teams.Replace(ctx, team); err != nil {
			s.logger.Warn(ctx, "failed to mark invitation expired", "team", team.ID.Hex(), "error", err)
		}
		return nil, nil, conflictf("invitation has expired")
	}
	return team, invitation, nil
}

// AcceptInvitation joins the authenticated user to the team. The
// invitation must match the user's email. Membership and invitation state
// change in a single document replace.
func (s *TeamService) AcceptInvitation(ctx context.Context, userID, token string) (*structs.Team, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, unauthorizedf("account no longer exists")
		}
		return nil, err
	}

	team, invitation, err := s.findInvitation(ctx, token)
	if err != nil {
		return nil, err
	}
	if invitation.Email != account.Email {
		return nil, forbiddenf("this invitation was sent to a different email address")
	}
	if team.IsOwner(user) || team.Member(user) != nil {
		return nil, conflictf("you are already in the team")
	}

	invitation.Status = structs.InvitationAccepted
	team.Members = append(team.Members, structs.TeamMember{
		User:        user,
		Role:        invitation.Role,
		Permissions: structs.PermissionsForRole(invitation.Role),
		JoinedAt:    time.Now(),
		InvitedBy:   invitation.InvitedBy,
	})

	updated, err := s.teams.Replace(ctx, team)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityTeamInvitationAccepted, user, updated, nil, memberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// DeclineInvitation declines an invitation sent to the user's email.
func (s *TeamService) DeclineInvitation(ctx context.Context, userID, token string) error {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return err
	}
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return unauthorizedf("account no longer exists")
		}
		return err
	}

	team, invitation, err := s.findInvitation(ctx, token)
	if err != nil {
		return err
	}
	if invitation.Email != account.Email {
		return forbiddenf("this invitation was sent to a different email address")
	}

	invitation.Status = structs.InvitationDeclined
	updated, err := s.teams.Replace(ctx, team)
	if err != nil {
		return err
	}

	s.record(ctx, structs.ActivityTeamInvitationDeclined, user, updated, &invitation.InvitedBy, []primitive.ObjectID{invitation.InvitedBy})
	return nil
}
