package db

import (
	"context"
	"time"

	"pollhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// QuestionRepo persists Q&A board questions
type QuestionRepo struct {
	coll *mongo.Collection
}

func NewQuestionRepo(s *Store) *QuestionRepo {
	return &QuestionRepo{coll: s.Collection(QuestionsCollection)}
}

func (r *QuestionRepo) Create(ctx context.Context, q *models.Question) error {
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, q)
	return translateErr(err)
}

func (r *QuestionRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error) {
	return findByID[models.Question](ctx, r.coll, bson.M{"_id": id})
}

func (r *QuestionRepo) List(ctx context.Context, status string, page Page) ([]models.Question, int64, error) {
	filter := bson.M{"is_deleted": false}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.Question](ctx, r.coll, filter, page, "created_at", nil)
}

// SetAnswer stores the admin answer and moves the question to answered.
func (r *QuestionRepo) SetAnswer(ctx context.Context, id primitive.ObjectID, answer models.QuestionAnswer) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false}, bson.M{"$set": bson.M{
		"answer":     answer,
		"status":     models.QuestionStatusAnswered,
		"updated_at": time.Now(),
	}})
}

func (r *QuestionRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
}

func (r *QuestionRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id}, bson.M{"$inc": bson.M{"view_count": 1}})
}

func (r *QuestionRepo) IncrementComments(ctx context.Context, id primitive.ObjectID, delta int64) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id}, bson.M{"$inc": bson.M{"comment_count": delta}})
}

func (r *QuestionRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now()}})
}

// CommentRepo persists comments on Q&A questions
type CommentRepo struct {
	coll *mongo.Collection
}

func NewCommentRepo(s *Store) *CommentRepo {
	return &CommentRepo{coll: s.Collection(CommentsCollection)}
}

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, c)
	return translateErr(err)
}

func (r *CommentRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	return findByID[models.Comment](ctx, r.coll, bson.M{"_id": id})
}

// ListByQuestion returns comments newest first. Soft-deleted comments are
// kept so the thread length stays stable.
func (r *CommentRepo) ListByQuestion(ctx context.Context, questionID primitive.ObjectID, page Page) ([]models.Comment, int64, error) {
	return findPage[models.Comment](ctx, r.coll, bson.M{"question_id": questionID}, page, "created_at", nil)
}

func (r *CommentRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true}})
}

// RequestRepo persists request board entries
type RequestRepo struct {
	coll *mongo.Collection
}

func NewRequestRepo(s *Store) *RequestRepo {
	return &RequestRepo{coll: s.Collection(RequestsCollection)}
}

func (r *RequestRepo) Create(ctx context.Context, req *models.Request) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, req)
	return translateErr(err)
}

func (r *RequestRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	return findByID[models.Request](ctx, r.coll, bson.M{"_id": id})
}

func (r *RequestRepo) List(ctx context.Context, status string, page Page) ([]models.Request, int64, error) {
	filter := bson.M{"is_deleted": false}
	if status != "" {
		filter["status"] = status
	}
	return findPage[models.Request](ctx, r.coll, filter, page, "created_at", nil)
}

func (r *RequestRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
}

func (r *RequestRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now()}})
}

// GuestbookRepo persists guestbook notes
type GuestbookRepo struct {
	coll *mongo.Collection
}

func NewGuestbookRepo(s *Store) *GuestbookRepo {
	return &GuestbookRepo{coll: s.Collection(GuestbookCollection)}
}

func (r *GuestbookRepo) Create(ctx context.Context, note *models.GuestbookNote) error {
	if note.ID.IsZero() {
		note.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, note)
	return translateErr(err)
}

func (r *GuestbookRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.GuestbookNote, error) {
	return findByID[models.GuestbookNote](ctx, r.coll, bson.M{"_id": id})
}

func (r *GuestbookRepo) List(ctx context.Context, page Page) ([]models.GuestbookNote, int64, error) {
	return findPage[models.GuestbookNote](ctx, r.coll, bson.M{"is_deleted": false}, page, "created_at", nil)
}

func (r *GuestbookRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id, "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true}})
}
