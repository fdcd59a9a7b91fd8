package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a free-text entry on a Q&A question
type Comment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	QuestionID     primitive.ObjectID `bson:"question_id" json:"question_id"`
	AuthorNickname string             `bson:"author_nickname" json:"author_nickname"`
	Content        string             `bson:"content" json:"content"`
	Password       string             `bson:"password" json:"-"`
	VoterIPHash    string             `bson:"voter_ip_hash" json:"-"`
	IsDeleted      bool               `bson:"is_deleted" json:"is_deleted"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// DeletedCommentContent replaces the body of soft-deleted comments
const DeletedCommentContent = "This comment has been deleted."

// MarshalJSON blanks the author and body of soft-deleted comments so the
// thread keeps its shape without leaking removed text.
func (c Comment) MarshalJSON() ([]byte, error) {
	type Alias Comment
	out := (Alias)(c)
	if c.IsDeleted {
		out.AuthorNickname = ""
		out.Content = DeletedCommentContent
	}
	return json.Marshal(out)
}
