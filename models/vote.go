package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote is the single ballot a fingerprint may cast on a debate.
// (debate_id, voter_ip_hash) is unique.
type Vote struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DebateID    primitive.ObjectID `bson:"debate_id" json:"debate_id"`
	VoterIPHash string             `bson:"voter_ip_hash" json:"-"`
	VoterName   string             `bson:"voter_name,omitempty" json:"voter_name,omitempty"`
	OptionIDs   []string           `bson:"option_ids" json:"option_ids"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
