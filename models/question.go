package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Q&A board statuses
const (
	QuestionStatusPending  = "pending"
	QuestionStatusAnswered = "answered"
	QuestionStatusClosed   = "closed"
)

// Question is an item on the Q&A board, answered by an admin
type Question struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AuthorNickname string             `bson:"author_nickname" json:"author_nickname"`
	Title          string             `bson:"title" json:"title"`
	Content        string             `bson:"content" json:"content,omitempty"`
	Password       string             `bson:"password" json:"-"`
	IsPrivate      bool               `bson:"is_private" json:"is_private"`
	AllowComments  bool               `bson:"allow_comments" json:"allow_comments"`
	Status         string             `bson:"status" json:"status"`
	Answer         *QuestionAnswer    `bson:"answer,omitempty" json:"answer,omitempty"`
	CommentCount   int64              `bson:"comment_count" json:"comment_count"`
	ViewCount      int64              `bson:"view_count" json:"view_count"`
	IsDeleted      bool               `bson:"is_deleted" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// QuestionAnswer is the single admin answer of a question
type QuestionAnswer struct {
	Content    string    `bson:"content" json:"content"`
	AnsweredBy string    `bson:"answered_by" json:"answered_by"`
	AnsweredAt time.Time `bson:"answered_at" json:"answered_at"`
}
