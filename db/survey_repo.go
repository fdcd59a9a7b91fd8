package db

import (
	"context"
	"time"

	"pollhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SurveyRepo persists surveys
type SurveyRepo struct {
	coll *mongo.Collection
}

func NewSurveyRepo(s *Store) *SurveyRepo {
	return &SurveyRepo{coll: s.Collection(SurveysCollection)}
}

func (r *SurveyRepo) Create(ctx context.Context, survey *models.Survey) error {
	if survey.ID.IsZero() {
		survey.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, survey)
	return translateErr(err)
}

func (r *SurveyRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Survey, error) {
	return findByID[models.Survey](ctx, r.coll, bson.M{"_id": id})
}

// List returns non-deleted surveys, optionally restricted to one status.
func (r *SurveyRepo) List(ctx context.Context, status string, page Page) ([]models.Survey, int64, error) {
	filter := bson.M{"is_deleted": false}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.Survey](ctx, r.coll, filter, page, "created_at", nil)
}

func (r *SurveyRepo) SetAuthorToken(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"author_token":            token,
		"author_token_expires_at": expiresAt,
	}})
}

func (r *SurveyRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
}

func (r *SurveyRepo) IncrementResponses(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id}, bson.M{"$inc": bson.M{"response_count": 1}})
}

func (r *SurveyRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now()}})
}

// ResponseRepo persists survey responses. (survey_id, respondent_ip_hash) is
// indexed but deliberately not unique.
type ResponseRepo struct {
	coll *mongo.Collection
}

func NewResponseRepo(s *Store) *ResponseRepo {
	return &ResponseRepo{coll: s.Collection(ResponsesCollection)}
}

func (r *ResponseRepo) Insert(ctx context.Context, resp *models.SurveyResponse) error {
	if resp.ID.IsZero() {
		resp.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, resp)
	return translateErr(err)
}

func (r *ResponseRepo) Exists(ctx context.Context, surveyID primitive.ObjectID, respondentIPHash string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"survey_id": surveyID, "respondent_ip_hash": respondentIPHash})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ResponseRepo) ListBySurvey(ctx context.Context, surveyID primitive.ObjectID) ([]models.SurveyResponse, error) {
	items, _, err := findPage[models.SurveyResponse](ctx, r.coll, bson.M{"survey_id": surveyID}, Page{}, "created_at", nil)
	return items, err
}
