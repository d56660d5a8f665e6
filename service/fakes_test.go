package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ncobase/taskflow/config"
	"github.com/ncobase/taskflow/data/repository"
	"github.com/ncobase/taskflow/pkg/email"
	"github.com/ncobase/taskflow/pkg/logger"
	"github.com/ncobase/taskflow/structs"
)

// In-memory repository fakes backing the service tests.

type fakeTaskRepo struct {
	tasks map[primitive.ObjectID]*structs.Task
}

func newFakeTaskRepo(tasks ...*structs.Task) *fakeTaskRepo {
	repo := &fakeTaskRepo{tasks: map[primitive.ObjectID]*structs.Task{}}
	for _, task := range tasks {
		repo.tasks[task.ID] = task
	}
	return repo
}

func (f *fakeTaskRepo) Create(_ context.Context, task *structs.Task) (*structs.Task, error) {
	task.ID = primitive.NewObjectID()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskRepo) FindByID(_ context.Context, id string) (*structs.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	task, ok := f.tasks[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return task, nil
}

func (f *fakeTaskRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*structs.Task, error) {
	var out []*structs.Task
	for _, id := range ids {
		if task, ok := f.tasks[id]; ok {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) Find(context.Context, *repository.TaskFilter) ([]*structs.Task, int64, error) {
	return nil, 0, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M, unset ...bson.M) (*structs.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for key, value := range set {
		switch key {
		case "name":
			task.Name = value.(string)
		case "description":
			task.Description = value.(string)
		case "priority":
			task.Priority = value.(string)
		case "completed":
			task.Completed = value.(bool)
		case "completed_at":
			at := value.(time.Time)
			task.CompletedAt = &at
		case "is_recurring":
			task.IsRecurring = value.(bool)
		case "recurrence_rule":
			task.RecurrenceRule = value.(*structs.RecurrenceRule)
		case "assigned_to":
			task.AssignedTo = value.([]primitive.ObjectID)
		case "dependencies":
			task.Dependencies = value.([]primitive.ObjectID)
		}
	}
	for _, u := range unset {
		for key := range u {
			switch key {
			case "completed_at":
				task.CompletedAt = nil
			case "recurrence_rule":
				task.RecurrenceRule = nil
			}
		}
	}
	task.UpdatedAt = time.Now()
	return task, nil
}

func (f *fakeTaskRepo) Replace(_ context.Context, task *structs.Task) (*structs.Task, error) {
	if _, ok := f.tasks[task.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskRepo) Stats(context.Context, primitive.ObjectID) (*structs.TaskStats, error) {
	return &structs.TaskStats{}, nil
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*structs.User
}

func newFakeUserRepo(users ...*structs.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[primitive.ObjectID]*structs.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, user *structs.User) (*structs.User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return nil, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*structs.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	user, ok := f.users[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*structs.User, error) {
	var out []*structs.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, emailAddr string) (*structs.User, error) {
	for _, user := range f.users {
		if user.Email == emailAddr {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByVerificationToken(_ context.Context, token string) (*structs.User, error) {
	now := time.Now()
	for _, user := range f.users {
		if user.EmailVerificationToken == token && user.EmailVerificationExp != nil && user.EmailVerificationExp.After(now) {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) FindByResetToken(_ context.Context, token string) (*structs.User, error) {
	now := time.Now()
	for _, user := range f.users {
		if user.ResetPasswordToken == token && user.ResetPasswordExp != nil && user.ResetPasswordExp.After(now) {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M, unset ...bson.M) (*structs.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for key, value := range set {
		switch key {
		case "name":
			user.Name = value.(string)
		case "avatar":
			user.Avatar = value.(string)
		case "password":
			user.Password = value.(string)
		case "profile":
			user.Profile = value.(structs.UserProfile)
		case "is_active":
			user.IsActive = value.(bool)
		case "is_email_verified":
			user.IsEmailVerified = value.(bool)
		case "last_login":
			at := value.(time.Time)
			user.LastLogin = &at
		case "email_verification_token":
			user.EmailVerificationToken = value.(string)
		case "email_verification_exp":
			exp := value.(time.Time)
			user.EmailVerificationExp = &exp
		case "reset_password_token":
			user.ResetPasswordToken = value.(string)
		case "reset_password_exp":
			exp := value.(time.Time)
			user.ResetPasswordExp = &exp
		}
	}
	for _, u := range unset {
		for key := range u {
			switch key {
			case "email_verification_token":
				user.EmailVerificationToken = ""
			case "email_verification_exp":
				user.EmailVerificationExp = nil
			case "reset_password_token":
				user.ResetPasswordToken = ""
			case "reset_password_exp":
				user.ResetPasswordExp = nil
			}
		}
	}
	user.UpdatedAt = time.Now()
	return user, nil
}

type fakeTeamRepo struct {
	teams map[primitive.ObjectID]*structs.Team
}

func newFakeTeamRepo(teams ...*structs.Team) *fakeTeamRepo {
	repo := &fakeTeamRepo{teams: map[primitive.ObjectID]*structs.Team{}}
	for _, team := range teams {
		repo.teams[team.ID] = team
	}
	return repo
}

func (f *fakeTeamRepo) Create(_ context.Context, team *structs.Team) (*structs.Team, error) {
	team.ID = primitive.NewObjectID()
	team.CreatedAt = time.Now()
	team.UpdatedAt = team.CreatedAt
	f.teams[team.ID] = team
	return team, nil
}

func (f *fakeTeamRepo) FindByID(_ context.Context, id string) (*structs.Team, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	team, ok := f.teams[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return team, nil
}

func (f *fakeTeamRepo) FindByUser(_ context.Context, userID primitive.ObjectID) ([]*structs.Team, error) {
	var out []*structs.Team
	for _, team := range f.teams {
		if team.HasAccess(userID) {
			out = append(out, team)
		}
	}
	return out, nil
}

func (f *fakeTeamRepo) FindByInvitationToken(_ context.Context, token string) (*structs.Team, error) {
	for _, team := range f.teams {
		for i := range team.Invitations {
			if team.Invitations[i].Token == token {
				return team, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTeamRepo) Replace(_ context.Context, team *structs.Team) (*structs.Team, error) {
	if _, ok := f.teams[team.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	team.UpdatedAt = time.Now()
	f.teams[team.ID] = team
	return team, nil
}

func (f *fakeTeamRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.teams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.teams, id)
	return nil
}

type fakeSharedListRepo struct {
	lists map[primitive.ObjectID]*structs.SharedList
}

func newFakeSharedListRepo(lists ...*structs.SharedList) *fakeSharedListRepo {
	repo := &fakeSharedListRepo{lists: map[primitive.ObjectID]*structs.SharedList{}}
	for _, list := range lists {
		repo.lists[list.ID] = list
	}
	return repo
}

func (f *fakeSharedListRepo) Create(_ context.Context, list *structs.SharedList) (*structs.SharedList, error) {
	list.ID = primitive.NewObjectID()
	list.CreatedAt = time.Now()
	list.UpdatedAt = list.CreatedAt
	f.lists[list.ID] = list
	return list, nil
}

func (f *fakeSharedListRepo) FindByID(_ context.Context, id string) (*structs.SharedList, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	list, ok := f.lists[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return list, nil
}

func (f *fakeSharedListRepo) FindByUser(_ context.Context, userID primitive.ObjectID) ([]*structs.SharedList, error) {
	var out []*structs.SharedList
	for _, list := range f.lists {
		if _, ok := list.PermissionsFor(userID); ok {
			out = append(out, list)
		}
	}
	return out, nil
}

func (f *fakeSharedListRepo) FindByInvitationToken(_ context.Context, token string) (*structs.SharedList, error) {
	for _, list := range f.lists {
		for i := range list.Invitations {
			if list.Invitations[i].Token == token {
				return list, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSharedListRepo) FindByAccessCode(_ context.Context, code string) (*structs.SharedList, error) {
	for _, list := range f.lists {
		if list.IsPublic && list.PublicAccessCode == code {
			return list, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSharedListRepo) FindPublic(context.Context) ([]*structs.SharedList, error) {
	var out []*structs.SharedList
	for _, list := range f.lists {
		if list.IsPublic {
			out = append(out, list)
		}
	}
	return out, nil
}

func (f *fakeSharedListRepo) Replace(_ context.Context, list *structs.SharedList) (*structs.SharedList, error) {
	if _, ok := f.lists[list.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	list.UpdatedAt = time.Now()
	f.lists[list.ID] = list
	return list, nil
}

func (f *fakeSharedListRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.lists[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.lists, id)
	return nil
}

type fakeCommentRepo struct {
	comments map[primitive.ObjectID]*structs.Comment
}

func newFakeCommentRepo(comments ...*structs.Comment) *fakeCommentRepo {
	repo := &fakeCommentRepo{comments: map[primitive.ObjectID]*structs.Comment{}}
	for _, comment := range comments {
		repo.comments[comment.ID] = comment
	}
	return repo
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *structs.Comment) (*structs.Comment, error) {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	f.comments[comment.ID] = comment
	return comment, nil
}

func (f *fakeCommentRepo) FindByID(_ context.Context, id string) (*structs.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	comment, ok := f.comments[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return comment, nil
}

func (f *fakeCommentRepo) FindByTask(_ context.Context, taskID primitive.ObjectID, _, _ int64) ([]*structs.Comment, int64, error) {
	var out []*structs.Comment
	for _, comment := range f.comments {
		if comment.Task == taskID {
			out = append(out, comment)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCommentRepo) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*structs.Comment, error) {
	comment, ok := f.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for key, value := range set {
		switch key {
		case "content":
			comment.Content = value.(string)
		case "is_edited":
			comment.IsEdited = value.(bool)
		case "edited_at":
			at := value.(time.Time)
			comment.EditedAt = &at
		case "mentions":
			comment.Mentions = value.([]primitive.ObjectID)
		}
	}
	return comment, nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentRepo) DeleteReplies(_ context.Context, parentID primitive.ObjectID) (int64, error) {
	var count int64
	for id, comment := range f.comments {
		if comment.ParentComment != nil && *comment.ParentComment == parentID {
			delete(f.comments, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeCommentRepo) DeleteByTask(_ context.Context, taskID primitive.ObjectID) (int64, error) {
	var count int64
	for id, comment := range f.comments {
		if comment.Task == taskID {
			delete(f.comments, id)
			count++
		}
	}
	return count, nil
}

type fakeReactionRepo struct {
	reactions map[string]*structs.CommentReaction
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{reactions: map[string]*structs.CommentReaction{}}
}

func reactionKey(commentID, userID primitive.ObjectID) string {
	return commentID.Hex() + ":" + userID.Hex()
}

func (f *fakeReactionRepo) Upsert(_ context.Context, commentID, userID primitive.ObjectID, reaction string) (*structs.CommentReaction, error) {
	key := reactionKey(commentID, userID)
	if existing, ok := f.reactions[key]; ok {
		existing.Reaction = reaction
		return existing, nil
	}
	created := &structs.CommentReaction{
		ID:        primitive.NewObjectID(),
		Comment:   commentID,
		User:      userID,
		Reaction:  reaction,
		CreatedAt: time.Now(),
	}
	f.reactions[key] = created
	return created, nil
}

func (f *fakeReactionRepo) Remove(_ context.Context, commentID, userID primitive.ObjectID) error {
	key := reactionKey(commentID, userID)
	if _, ok := f.reactions[key]; !ok {
		return repository.ErrNotFound
	}
	delete(f.reactions, key)
	return nil
}

func (f *fakeReactionRepo) FindByComment(_ context.Context, commentID primitive.ObjectID) ([]*structs.CommentReaction, error) {
	var out []*structs.CommentReaction
	for _, reaction := range f.reactions {
		if reaction.Comment == commentID {
			out = append(out, reaction)
		}
	}
	return out, nil
}

func (f *fakeReactionRepo) DeleteByComments(_ context.Context, commentIDs []primitive.ObjectID) (int64, error) {
	var count int64
	for key, reaction := range f.reactions {
		for _, id := range commentIDs {
			if reaction.Comment == id {
				delete(f.reactions, key)
				count++
				break
			}
		}
	}
	return count, nil
}

type fakeActivityRepo struct {
	activities []*structs.Activity
}

func (f *fakeActivityRepo) Create(_ context.Context, activity *structs.Activity) (*structs.Activity, error) {
	activity.ID = primitive.NewObjectID()
	activity.CreatedAt = time.Now()
	f.activities = append(f.activities, activity)
	return activity, nil
}

func (f *fakeActivityRepo) Find(context.Context, *repository.ActivityFilter) ([]*structs.Activity, int64, error) {
	return f.activities, int64(len(f.activities)), nil
}

func (f *fakeActivityRepo) last() *structs.Activity {
	if len(f.activities) == 0 {
		return nil
	}
	return f.activities[len(f.activities)-1]
}

type fakeNotificationRepo struct {
	notifications []*structs.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *structs.Notification) (*structs.Notification, error) {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	f.notifications = append(f.notifications, n)
	return n, nil
}

func (f *fakeNotificationRepo) Find(_ context.Context, recipient primitive.ObjectID, read *bool, _, _ int64) ([]*structs.Notification, int64, error) {
	var out []*structs.Notification
	for _, n := range f.notifications {
		if n.Recipient != recipient {
			continue
		}
		if read != nil && n.Read != *read {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.Recipient == recipient && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id, recipient primitive.ObjectID) (*structs.Notification, error) {
	for _, n := range f.notifications {
		if n.ID == id && n.Recipient == recipient {
			now := time.Now()
			n.Read = true
			n.ReadAt = &now
			return n, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	var count int64
	now := time.Now()
	for _, n := range f.notifications {
		if n.Recipient == recipient && !n.Read {
			n.Read = true
			n.ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, id, recipient primitive.ObjectID) error {
	for i, n := range f.notifications {
		if n.ID == id && n.Recipient == recipient {
			f.notifications = append(f.notifications[:i], f.notifications[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakePreferenceRepo struct {
	prefs map[primitive.ObjectID]*structs.NotificationPreference
}

func (f *fakePreferenceRepo) FindByUser(_ context.Context, userID primitive.ObjectID) (*structs.NotificationPreference, error) {
	pref, ok := f.prefs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return pref, nil
}

func (f *fakePreferenceRepo) Save(_ context.Context, pref *structs.NotificationPreference) (*structs.NotificationPreference, error) {
	if f.prefs == nil {
		f.prefs = map[primitive.ObjectID]*structs.NotificationPreference{}
	}
	f.prefs[pref.User] = pref
	return pref, nil
}

type sentEmail struct {
	to       string
	template email.Template
}

// fakeSender records every email instead of sending it.
type fakeSender struct {
	emails []sentEmail
}

func (f *fakeSender) SendTemplateEmail(to string, template email.Template) (string, error) {
	f.emails = append(f.emails, sentEmail{to: to, template: template})
	return "", nil
}

func (f *fakeSender) lastURL() string {
	if len(f.emails) == 0 {
		return ""
	}
	return f.emails[len(f.emails)-1].template.URL
}

// tokenFromURL pulls the token query parameter out of an emailed link.
func tokenFromURL(u string) string {
	i := strings.Index(u, "token=")
	if i < 0 {
		return ""
	}
	return u[i+len("token="):]
}

func testConfig() *config.Config {
	return &config.Config{
		Protocol: "http",
		Domain:   "localhost",
		Auth:     &config.Auth{JWT: &config.JWT{Secret: "test-secret", Expire: 1}},
	}
}

// newTestActivityService wires an activity service onto fakes so other
// services can record without a database.
func newTestActivityService(users repository.UserRepository) (*ActivityService, *fakeActivityRepo, *fakeNotificationRepo) {
	activities := &fakeActivityRepo{}
	notifications := &fakeNotificationRepo{}
	svc := &ActivityService{
		cfg:           testConfig(),
		activities:    activities,
		notifications: notifications,
		preferences:   &fakePreferenceRepo{},
		users:         users,
		pub:           NoopPublisher{},
		logger:        logger.StdLogger(),
	}
	return svc, activities, notifications
}
