package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request board statuses
const (
	RequestStatusPending    = "pending"
	RequestStatusInProgress = "in_progress"
	RequestStatusDone       = "done"
	RequestStatusRejected   = "rejected"
)

// Request is a visitor suggestion addressed to the site admins
type Request struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AuthorNickname string             `bson:"author_nickname" json:"author_nickname"`
	Title          string             `bson:"title" json:"title"`
	Content        string             `bson:"content" json:"content"`
	Category       string             `bson:"category" json:"category"`
	Password       string             `bson:"password" json:"-"`
	Status         string             `bson:"status" json:"status"`
	IsDeleted      bool               `bson:"is_deleted" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// GuestbookNote is a short message left on the guestbook
type GuestbookNote struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AuthorNickname string             `bson:"author_nickname" json:"author_nickname"`
	Content        string             `bson:"content" json:"content"`
	Password       string             `bson:"password" json:"-"`
	IsDeleted      bool               `bson:"is_deleted" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// IsValidRequestStatus reports whether s is a known request status
func IsValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusInProgress, RequestStatusDone, RequestStatusRejected:
		return true
	}
	return false
}
