package structs

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment represents a task comment document. Replies reference their
// parent through ParentComment; nesting is one level deep.
type Comment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Task          primitive.ObjectID   `bson:"task" json:"task"`
	User          primitive.ObjectID   `bson:"user" json:"user"`
	Content       string               `bson:"content" json:"content"`
	Attachments   []Attachment         `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Mentions      []primitive.ObjectID `bson:"mentions,omitempty" json:"mentions,omitempty"`
	ParentComment *primitive.ObjectID  `bson:"parent_comment,omitempty" json:"parent_comment,omitempty"`
	IsEdited      bool                 `bson:"is_edited" json:"is_edited"`
	EditedAt      *time.Time           `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// CommentReaction represents a single user's reaction to a comment.
// One reaction per (comment, user); a new reaction replaces the old one.
type CommentReaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Comment   primitive.ObjectID `bson:"comment" json:"comment"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Reaction  string             `bson:"reaction" json:"reaction"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// CreateCommentBody represents the comment creation payload.
type CreateCommentBody struct {
	TaskID        string   `json:"task_id" validate:"required"`
	Content       string   `json:"content" validate:"required,min=1,max=2000"`
	Mentions      []string `json:"mentions,omitempty"`
	ParentComment string   `json:"parent_comment,omitempty"`
}

// UpdateCommentBody represents the comment update payload.
type UpdateCommentBody struct {
	Content  string   `json:"content" validate:"required,min=1,max=2000"`
	Mentions []string `json:"mentions,omitempty"`
}

// ReactionBody represents the reaction payload.
type ReactionBody struct {
	Reaction string `json:"reaction" validate:"required,min=1,max=50"`
}

// ReactionSummary aggregates reactions for a comment.
type ReactionSummary struct {
	Counts    map[string]int64   `json:"counts"`
	Reactions []*CommentReaction `json:"reactions"`
}
