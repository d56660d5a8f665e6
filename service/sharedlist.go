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

// SharedListService handles shared task lists, their members and
// invitations.
type SharedListService struct {
	cfg      *config.Config
	lists    repository.SharedListRepository
	tasks    repository.TaskRepository
	teams    repository.TeamRepository
	users    repository.UserRepository
	sender   email.Sender
	activity *ActivityService
	pub      Publisher
	logger   *logger.Logger
}

// NewSharedListService creates a new shared list service instance.
func NewSharedListService(cfg *config.Config, d *data.Data, sender email.Sender, activity *ActivityService, pub Publisher, log *logger.Logger) *SharedListService {
	return &SharedListService{
		cfg:      cfg,
		lists:    d.SharedListRepo,
		tasks:    d.TaskRepo,
		teams:    d.TeamRepo,
		users:    d.UserRepo,
		sender:   sender,
		activity: activity,
		pub:      pub,
		logger:   log,
	}
}

// load fetches a list and checks the user can view it.
func (s *SharedListService) load(ctx context.Context, userID, listID string) (*structs.SharedList, primitive.ObjectID, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, primitive.NilObjectID, err
	}

	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, primitive.NilObjectID, notFoundf("no list with id %s", listID)
		}
		return nil, primitive.NilObjectID, err
	}

	perms, ok := list.PermissionsFor(user)
	if !ok || !perms.View {
		return nil, primitive.NilObjectID, forbiddenf("you do not have access to this list")
	}
	return list, user, nil
}

func (s *SharedListService) record(ctx context.Context, t structs.ActivityType, actor primitive.ObjectID, list *structs.SharedList, target *primitive.ObjectID, recipients []primitive.ObjectID) {
	listRef := list.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:       t,
		User:       actor,
		SharedList: &listRef,
		TargetUser: target,
		Metadata:   map[string]any{"name": list.Name},
	}, recipients)
}

func (s *SharedListService) publish(list *structs.SharedList) {
	s.pub.Publish(structs.ListRoom(list.ID.Hex()), newEvent(structs.EventListUpdated, list))
}

// listMemberIDs returns the owner plus every member.
func listMemberIDs(list *structs.SharedList) []primitive.ObjectID {
	ids := []primitive.ObjectID{list.Owner}
	for _, m := range list.Members {
		ids = append(ids, m.User)
	}
	return ids
}

// Create creates a shared list. Public lists get an access code.
func (s *SharedListService) Create(ctx context.Context, userID string, body *structs.CreateSharedListBody) (*structs.SharedList, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}

	list := &structs.SharedList{
		Name:        body.Name,
		Description: body.Description,
		Owner:       user,
		Members:     []structs.ListMember{},
		IsPublic:    body.IsPublic,
	}
	if body.IsPublic {
		list.PublicAccessCode = nanoid.Lower(12)
	}

	if body.Team != "" {
		team, err := s.teams.FindByID(ctx, body.Team)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
				return nil, notFoundf("no team with id %s", body.Team)
			}
			return nil, err
		}
		if !team.HasAccess(user) {
			return nil, forbiddenf("you are not a member of this team")
		}
		list.Team = &team.ID
	}

	created, err := s.lists.Create(ctx, list)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictf("access code collision, retry the request")
		}
		return nil, err
	}

	s.record(ctx, structs.ActivityListCreated, user, created, nil, nil)
	return created, nil
}

// List returns every list the user owns or belongs to.
func (s *SharedListService) List(ctx context.Context, userID string) ([]*structs.SharedList, error) {
	user, err := parseObjectID(userID, "user")
	if err != nil {
		return nil, err
	}
	lists, err := s.lists.FindByUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []*structs.SharedList{}
	}
	return lists, nil
}

// PublicLists returns every list marked public. No authentication needed.
func (s *SharedListService) PublicLists(ctx context.Context) ([]*structs.SharedList, error) {
	lists, err := s.lists.FindPublic(ctx)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []*structs.SharedList{}
	}
	return lists, nil
}

// Get returns one list the user can view.
func (s *SharedListService) Get(ctx context.Context, userID, listID string) (*structs.SharedList, error) {
	list, _, err := s.load(ctx, userID, listID)
	return list, err
}

// GetByAccessCode returns a public list. No authentication required.
func (s *SharedListService) GetByAccessCode(ctx context.Context, code string) (*structs.SharedList, error) {
	list, err := s.lists.FindByAccessCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("no public list with this access code")
		}
		return nil, err
	}
	return list, nil
}

// Update updates list metadata. Requires the update permission. Toggling
// public visibility rotates or clears the access code.
func (s *SharedListService) Update(ctx context.Context, userID, listID string, body *structs.UpdateSharedListBody) (*structs.SharedList, error) {
	list, user, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	perms, _ := list.PermissionsFor(user)
	if !perms.Update {
		return nil, forbiddenf("you do not have permission to update this list")
	}

	if body.Name != nil {
		list.Name = *body.Name
	}
	if body.Description != nil {
		list.Description = *body.Description
	}
	if body.IsPublic != nil && *body.IsPublic != list.IsPublic {
		list.IsPublic = *body.IsPublic
		if list.IsPublic {
			list.PublicAccessCode = nanoid.Lower(12)
		} else {
			list.PublicAccessCode = ""
		}
	}

	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityListUpdated, user, updated, nil, listMemberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// Delete deletes a list. Only the owner may delete.
func (s *SharedListService) Delete(ctx context.Context, userID, listID string) error {
	list, user, err := s.load(ctx, userID, listID)
	if err != nil {
		return err
	}
	if !list.IsOwner(user) {
		return forbiddenf("only the list owner can delete it")
	}

	if err := s.lists.Delete(ctx, list.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("no list with id %s", listID)
		}
		return err
	}

	s.record(ctx, structs.ActivityListDeleted, user, list, nil, listMemberIDs(list))
	s.publish(list)
	return nil
}

// AddMember adds an account to the list. Requires the share permission.
// Missing permissions default to view-only.
func (s *SharedListService) AddMember(ctx context.Context, userID, listID string, body *structs.AddListMemberBody) (*structs.SharedList, error) {
	list, user, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	perms, _ := list.PermissionsFor(user)
	if !perms.Share {
		return nil, forbiddenf("you do not have permission to share this list")
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
	if list.IsOwner(newMember) || list.Member(newMember) != nil {
		return nil, conflictf("user is already on the list")
	}

	memberPerms := structs.DefaultListPermissions()
	if body.Permissions != nil {
		memberPerms = *body.Permissions
		memberPerms.View = true
	}
	list.Members = append(list.Members, structs.ListMember{
		User:        newMember,
		Permissions: memberPerms,
		AddedAt:     time.Now(),
		AddedBy:     user,
	})

	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityListMemberAdded, user, updated, &newMember, listMemberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// UpdateMember replaces a member's permission bag. Requires the share
// permission. View stays on so the member can still see the list.
func (s *SharedListService) UpdateMember(ctx context.Context, userID, listID, memberID string, body *structs.UpdateListMemberBody) (*structs.SharedList, error) {
	list, user, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	perms, _ := list.PermissionsFor(user)
	if !perms.Share {
		return nil, forbiddenf("you do not have permission to manage this list")
	}

	target, err := parseObjectID(memberID, "member")
	if err != nil {
		return nil, err
	}
	if list.IsOwner(target) {
		return nil, invalidf("the owner's permissions cannot be changed")
	}
	member := list.Member(target)
	if member == nil {
		return nil, notFoundf("no member with id %s", memberID)
	}

	member.Permissions = body.Permissions
	member.Permissions.View = true

	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityListPermissionsUpdated, user, updated, &target, listMemberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// RemoveMember removes a member. Members may leave on their own; removing
// someone else requires the share permission.
func (s *SharedListService) RemoveMember(ctx context.Context, userID, listID, memberID string) (*structs.SharedList, error) {
	list, user, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	target, err := parseObjectID(memberID, "member")
	if err != nil {
		return nil, err
	}
	if list.IsOwner(target) {
		return nil, invalidf("the owner cannot be removed from the list")
	}
	if target != user {
		perms, _ := list.PermissionsFor(user)
		if !perms.Share {
			return nil, forbiddenf("you do not have permission to manage this list")
		}
	}

	kept := list.Members[:0]
	found := false
	for _, m := range list.Members {
		if m.User == target {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return nil, notFoundf("no member with id %s", memberID)
	}
	list.Members = kept

	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityListMemberRemoved, user, updated, &target, append(listMemberIDs(updated), target))
	s.publish(updated)
	return updated, nil
}

// Invite sends (or resends) an email invitation. A pending invitation for
// the same email is replaced. Requires the share permission.
func (s *SharedListService) Invite(ctx context.Context, userID, listID string, body *structs.InviteListMemberBody) (*structs.SharedList, error) {
	list, user, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	perms, _ := list.PermissionsFor(user)
	if !perms.Share {
		return nil, forbiddenf("you do not have permission to share this list")
	}

	if existing, err := s.users.FindByEmail(ctx, body.Email); err == nil {
		if list.IsOwner(existing.ID) || list.Member(existing.ID) != nil {
			return nil, conflictf("user is already on the list")
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	invitePerms := structs.DefaultListPermissions()
	if body.Permissions != nil {
		invitePerms = *body.Permissions
		invitePerms.View = true
	}
	invitation := structs.ListInvitation{
		Email:       body.Email,
		Permissions: invitePerms,
		Token:       nanoid.Token(),
		Status:      structs.InvitationPending,
		ExpiresAt:   time.Now().Add(structs.InvitationTTL),
		InvitedBy:   user,
		CreatedAt:   time.Now(),
	}

	if pending := list.PendingInvitation(body.Email); pending != nil {
		*pending = invitation
	} else {
		list.Invitations = append(list.Invitations, invitation)
	}

	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return nil, err
	}

	if s.sender != nil {
		_, err := s.sender.SendTemplateEmail(body.Email, email.Template{
			Subject:  fmt.Sprintf("You have been invited to the list %s", updated.Name),
			Template: "list-invitation",
			Keyword:  "View List",
			URL:      fmt.Sprintf("%s://%s/lists/join?token=%s", s.cfg.Protocol, s.cfg.Domain, invitation.Token),
			Data:     map[string]any{"list": updated.Name},
		})
		if err != nil {
			s.logger.Warn(ctx, "failed to send list invitation email", "email", body.Email, "error", err)
		}
	}

	s.record(ctx, structs.ActivityListInvitationSent, user, updated, nil, nil)
	s.publish(updated)
	return updated, nil
}

// findInvitation resolves an invitation token. Expired pending invitations
// are flagged and persisted.
func (s *SharedListService) findInvitation(ctx context.Context, token string) (*structs.SharedList, *structs.ListInvitation, error) {
	list, err := s.lists.FindByInvitationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundf("invitation not found")
		}
		return nil, nil, err
	}

	var invitation *structs.ListInvitation
	for i := range list.Invitations {
		if list.Invitations[i].Token == token {
			invitation = &list.Invitations[i]
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
		if _, err := s.lists.Replace(ctx, list); err != nil {
			s.logger.Warn(ctx, "failed to mark invitation expired", "list", list.ID.Hex(), "error", err)
		}
		return nil, nil, conflictf("invitation has expired")
	}
	return list, invitation, nil
}

// AcceptInvitation joins the authenticated user to the list.
func (s *SharedListService) AcceptInvitation(ctx context.Context, userID, token string) (*structs.SharedList, error) {
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

	list, invitation, err := s.findInvitation(ctx, token)
	if err != nil {
		return nil, err
	}
	if invitation.Email != account.Email {
		return nil, forbiddenf("this invitation was sent to a different email address")
	}
	if list.IsOwner(user) || list.Member(user) != nil {
		return nil, conflictf("you are already on the list")
	}

	invitation.Status = structs.InvitationAccepted
	list.Members = append(list.Members, structs.ListMember{
		User:        user,
		Permissions: invitation.Permissions,
		AddedAt:     time.Now(),
		AddedBy:     invitation.InvitedBy,
	})

	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return nil, err
	}

	s.record(ctx, structs.ActivityListInvitationAccepted, user, updated, nil, listMemberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// DeclineInvitation declines an invitation sent to the user's email.
func (s *SharedListService) DeclineInvitation(ctx context.Context, userID, token string) error {
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

	list, invitation, err := s.findInvitation(ctx, token)
	if err != nil {
		return err
	}
	if invitation.Email != account.Email {
		return forbiddenf("this invitation was sent to a different email address")
	}

	invitation.Status = structs.InvitationDeclined
	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return err
	}

	s.record(ctx, structs.ActivityListInvitationDeclined, user, updated, &invitation.InvitedBy, []primitive.ObjectID{invitation.InvitedBy})
	return nil
}

// AddTask attaches a task to the list. Requires the create permission and
// access to the task itself.
func (s *SharedListService) AddTask(ctx context.Context, userID, listID string, body *structs.AddListTaskBody) (*structs.SharedList, error) {
	list, user, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	perms, _ := list.PermissionsFor(user)
	if !perms.Create {
		return nil, forbiddenf("you do not have permission to add tasks to this list")
	}

	task, err := s.tasks.FindByID(ctx, body.TaskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, notFoundf("no task with id %s", body.TaskID)
		}
		return nil, err
	}
	if task.CreatedBy != user && !containsID(task.AssignedTo, user) {
		return nil, forbiddenf("you do not have access to this task")
	}
	if list.HasTask(task.ID) {
		return nil, conflictf("task is already on the list")
	}

	list.Tasks = append(list.Tasks, task.ID)
	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return nil, err
	}

	taskRef := task.ID
	listRef := updated.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:       structs.ActivityListTaskAdded,
		User:       user,
		Task:       &taskRef,
		SharedList: &listRef,
		Metadata:   map[string]any{"name": updated.Name, "task_name": task.Name},
	}, listMemberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// RemoveTask detaches a task from the list. Requires the delete
// permission.
func (s *SharedListService) RemoveTask(ctx context.Context, userID, listID, taskID string) (*structs.SharedList, error) {
	list, user, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	perms, _ := list.PermissionsFor(user)
	if !perms.Delete {
		return nil, forbiddenf("you do not have permission to remove tasks from this list")
	}

	task, err := parseObjectID(taskID, "task")
	if err != nil {
		return nil, err
	}
	if !list.HasTask(task) {
		return nil, notFoundf("task is not on the list")
	}
	list.Tasks = removeID(list.Tasks, task)

	updated, err := s.lists.Replace(ctx, list)
	if err != nil {
		return nil, err
	}

	taskRef := task
	listRef := updated.ID
	s.activity.Record(ctx, &structs.Activity{
		Type:       structs.ActivityListTaskRemoved,
		User:       user,
		Task:       &taskRef,
		SharedList: &listRef,
		Metadata:   map[string]any{"name": updated.Name},
	}, listMemberIDs(updated))
	s.publish(updated)
	return updated, nil
}

// Tasks returns the task documents attached to the list.
func (s *SharedListService) Tasks(ctx context.Context, userID, listID string) ([]*structs.Task, error) {
	list, _, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindByIDs(ctx, list.Tasks)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*structs.Task{}
	}
	return tasks, nil
}
