package db

import (
	"context"
	"time"

	"pollhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DebateFilter narrows a debate listing. Status is evaluated against Now.
type DebateFilter struct {
	Status         string
	Category       string
	Tag            string
	IncludeDeleted bool
	Now            time.Time
}

// DebateUpdate carries the author-editable fields; nil fields are left alone.
type DebateUpdate struct {
	Title       *string
	Description *string
	Tags        []string
	EndAt       *time.Time
	ClearEndAt  bool
	Settings    *models.DebateSettings
}

// DebateRepo persists debates, with votes and opinions embedded
type DebateRepo struct {
	coll *mongo.Collection
}

func NewDebateRepo(s *Store) *DebateRepo {
	return &DebateRepo{coll: s.Collection(DebatesCollection)}
}

func (r *DebateRepo) Create(ctx context.Context, debate *models.Debate) error {
	if debate.ID.IsZero() {
		debate.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, debate)
	return translateErr(err)
}

func (r *DebateRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Debate, error) {
	return findByID[models.Debate](ctx, r.coll, bson.M{"_id": id})
}

func (r *DebateRepo) List(ctx context.Context, f DebateFilter, page Page) ([]models.Debate, int64, error) {
	filter := bson.M{}
	if !f.IncludeDeleted {
		filter["is_deleted"] = false
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	switch f.Status {
	case models.DebateStatusScheduled:
		filter["start_at"] = bson.M{"$gt": f.Now}
	case models.DebateStatusEnded:
		filter["end_at"] = bson.M{"$lte": f.Now}
	case models.DebateStatusActive:
		filter["start_at"] = bson.M{"$lte": f.Now}
		filter["$or"] = bson.A{
			bson.M{"end_at": bson.M{"$exists": false}},
			bson.M{"end_at": nil},
			bson.M{"end_at": bson.M{"$gt": f.Now}},
		}
	}

	// Listings never need the embedded vote and opinion arrays.
	projection := bson.M{"votes": 0, "opinions": 0}
	return findPage[models.Debate](ctx, r.coll, filter, page, "created_at", projection)
}

func (r *DebateRepo) Update(ctx context.Context, id primitive.ObjectID, u DebateUpdate) error {
	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Tags != nil {
		set["tags"] = u.Tags
	}
	if u.Settings != nil {
		set["settings"] = *u.Settings
	}
	if u.ClearEndAt {
		unset["end_at"] = ""
	} else if u.EndAt != nil {
		set["end_at"] = *u.EndAt
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false}, update)
}

// ApplyVote bumps the chosen option counters and the aggregate stats and
// embeds the vote entry, all in one atomic update.
func (r *DebateRepo) ApplyVote(ctx context.Context, id primitive.ObjectID, entry models.VoteEntry) error {
	update := bson.M{
		"$inc": bson.M{
			"options.$[opt].vote_count": 1,
			"stats.total_votes":         1,
			"stats.unique_voters":       1,
		},
		"$push": bson.M{"votes": entry},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"opt.id": bson.M{"$in": entry.OptionIDs}}},
	})
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false}, update, opts)
}

func (r *DebateRepo) AppendOpinion(ctx context.Context, id primitive.ObjectID, opinion models.Opinion) error {
	update := bson.M{
		"$push": bson.M{"opinions": opinion},
		"$inc":  bson.M{"stats.opinion_count": 1},
	}
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false}, update)
}

func (r *DebateRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id}, bson.M{"$inc": bson.M{"stats.view_count": 1}})
}

func (r *DebateRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now()}})
}
