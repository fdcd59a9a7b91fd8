package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	DebatesCollection   = "debates"
	VotesCollection     = "votes"
	SurveysCollection   = "surveys"
	ResponsesCollection = "survey_responses"
	QuestionsCollection = "questions"
	CommentsCollection  = "comments"
	RequestsCollection  = "requests"
	GuestbookCollection = "guestbook"
	AdminsCollection    = "admins"
	ErrorLogsCollection = "error_logs"
)

var (
	// ErrNotFound is returned when no document matches a lookup.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

const connectTimeout = 10 * time.Second

// Store owns the MongoDB client. Connect is idempotent: the first call dials,
// later calls return the outcome of the first.
type Store struct {
	uri    string
	dbName string

	once     sync.Once
	err      error
	client   *mongo.Client
	database *mongo.Database
}

// NewStore prepares a store for the given URI. dbName overrides the database
// named in the URI path.
func NewStore(uri, dbName string) *Store {
	if dbName == "" {
		dbName = extractDBName(uri)
	}
	return &Store{uri: uri, dbName: dbName}
}

// extractDBName parses the database name from the URI, defaulting to "pollhub"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "pollhub"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // Trim leading '/'
	}
	return "pollhub"
}

// Connect establishes the connection using the configured URI
func (s *Store) Connect(ctx context.Context) error {
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
		if err != nil {
			s.err = fmt.Errorf("failed to connect to MongoDB: %w", err)
			return
		}

		// Verify connection with a ping
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			s.err = fmt.Errorf("failed to ping MongoDB: %w", err)
			return
		}

		s.client = client
		s.database = client.Database(s.dbName)
	})
	return s.err
}

// DatabaseName returns the name of the database in use
func (s *Store) DatabaseName() string {
	return s.dbName
}

// Database returns the connected database handle
func (s *Store) Database() *mongo.Database {
	return s.database
}

// Collection returns a collection by name
func (s *Store) Collection(name string) *mongo.Collection {
	return s.database.Collection(name)
}

// Ping checks that the server is still reachable
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return errors.New("mongo client not connected")
	}
	return s.client.Ping(ctx, nil)
}

// Disconnect closes the client if it was connected
func (s *Store) Disconnect(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes every repository
// depends on. The votes unique index is the only guard against a fingerprint
// voting twice under concurrency.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		VotesCollection: {
			{
				Keys:    bson.D{{Key: "debate_id", Value: 1}, {Key: "voter_ip_hash", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_debate_voter"),
			},
		},
		DebatesCollection: {
			{Keys: bson.D{{Key: "is_deleted", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
		},
		ResponsesCollection: {
			{Keys: bson.D{{Key: "survey_id", Value: 1}, {Key: "respondent_ip_hash", Value: 1}}},
		},
		SurveysCollection: {
			{Keys: bson.D{{Key: "is_deleted", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		QuestionsCollection: {
			{Keys: bson.D{{Key: "is_deleted", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "question_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		RequestsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		GuestbookCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		AdminsCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		},
		ErrorLogsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}

	for name, indexes := range specs {
		if _, err := s.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translateErr maps driver errors onto the package sentinels.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}

// Page describes a skip/limit window over a sorted query.
type Page struct {
	Page  int
	Limit int
}

// Skip returns the number of documents before the window.
func (p Page) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return int64((p.Page - 1) * p.Limit)
}

func (p Page) findOptions(sortField string, projection bson.M) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}})
	if p.Limit > 0 {
		opts.SetSkip(p.Skip()).SetLimit(int64(p.Limit))
	}
	if projection != nil {
		opts.SetProjection(projection)
	}
	return opts
}

// findPage runs a paged find, newest first by sortField, plus a count for
// the same filter. projection may be nil.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, page Page, sortField string, projection bson.M) ([]T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := coll.Find(ctx, filter, page.findOptions(sortField, projection))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// findByID decodes the document with the given _id.
func findByID[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, translateErr(err)
	}
	return &out, nil
}

// updateOne applies update and reports ErrNotFound when nothing matched.
func updateOne(ctx context.Context, coll *mongo.Collection, filter bson.M, update bson.M, opts ...*options.UpdateOptions) error {
	res, err := coll.UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return translateErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
