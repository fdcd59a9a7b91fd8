package db

import (
	"context"

	"pollhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// VoteRepo stores one vote per (debate, fingerprint), enforced by the
// uniq_debate_voter index.
type VoteRepo struct {
	coll *mongo.Collection
}

func NewVoteRepo(s *Store) *VoteRepo {
	return &VoteRepo{coll: s.Collection(VotesCollection)}
}

// Insert returns ErrDuplicateKey when the fingerprint already voted.
func (r *VoteRepo) Insert(ctx context.Context, vote *models.Vote) error {
	if vote.ID.IsZero() {
		vote.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, vote)
	return translateErr(err)
}

func (r *VoteRepo) Exists(ctx context.Context, debateID primitive.ObjectID, voterIPHash string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"debate_id": debateID, "voter_ip_hash": voterIPHash})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a vote whose counters could not be applied. It is not
// reachable from any HTTP route.
func (r *VoteRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
