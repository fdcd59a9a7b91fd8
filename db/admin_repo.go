package db

import (
	"context"
	"time"

	"pollhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminRepo persists backoffice accounts
type AdminRepo struct {
	coll *mongo.Collection
}

func NewAdminRepo(s *Store) *AdminRepo {
	return &AdminRepo{coll: s.Collection(AdminsCollection)}
}

// Create returns ErrDuplicateKey when the username or email is taken.
func (r *AdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID.IsZero() {
		admin.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, admin)
	return translateErr(err)
}

// FindByLogin looks an admin up by username or email.
func (r *AdminRepo) FindByLogin(ctx context.Context, login string) (*models.Admin, error) {
	return findByID[models.Admin](ctx, r.coll, bson.M{"$or": bson.A{
		bson.M{"username": login},
		bson.M{"email": login},
	}})
}

func (r *AdminRepo) List(ctx context.Context) ([]models.Admin, error) {
	items, _, err := findPage[models.Admin](ctx, r.coll, bson.M{}, Page{}, "created_at", nil)
	return items, err
}

func (r *AdminRepo) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return updateOne(ctx, r.coll, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": at}})
}

// ErrorLogRepo persists server-side failures for the backoffice
type ErrorLogRepo struct {
	coll *mongo.Collection
}

func NewErrorLogRepo(s *Store) *ErrorLogRepo {
	return &ErrorLogRepo{coll: s.Collection(ErrorLogsCollection)}
}

func (r *ErrorLogRepo) Create(ctx context.Context, entry *models.ErrorLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, entry)
	return translateErr(err)
}

func (r *ErrorLogRepo) List(ctx context.Context, page Page) ([]models.ErrorLog, int64, error) {
	return findPage[models.ErrorLog](ctx, r.coll, bson.M{}, page, "created_at", nil)
}
