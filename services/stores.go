package services

import (
	"context"
	"time"

	"pollhub/db"
	"pollhub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are satisfied by the db repositories and by the
// in-memory stores in testutil.

type DebateStore interface {
	Create(ctx context.Context, debate *models.Debate) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Debate, error)
	List(ctx context.Context, f db.DebateFilter, page db.Page) ([]models.Debate, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, u db.DebateUpdate) error
	ApplyVote(ctx context.Context, id primitive.ObjectID, entry models.VoteEntry) error
	AppendOpinion(ctx context.Context, id primitive.ObjectID, opinion models.Opinion) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type VoteStore interface {
	Insert(ctx context.Context, vote *models.Vote) error
	Exists(ctx context.Context, debateID primitive.ObjectID, voterIPHash string) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SurveyStore interface {
	Create(ctx context.Context, survey *models.Survey) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Survey, error)
	List(ctx context.Context, status string, page db.Page) ([]models.Survey, int64, error)
	SetAuthorToken(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	IncrementResponses(ctx context.Context, id primitive.ObjectID) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type ResponseStore interface {
	Insert(ctx context.Context, resp *models.SurveyResponse) error
	Exists(ctx context.Context, surveyID primitive.ObjectID, respondentIPHash string) (bool, error)
	ListBySurvey(ctx context.Context, surveyID primitive.ObjectID) ([]models.SurveyResponse, error)
}

type QuestionStore interface {
	Create(ctx context.Context, q *models.Question) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Question, error)
	List(ctx context.Context, status string, page db.Page) ([]models.Question, int64, error)
	SetAnswer(ctx context.Context, id primitive.ObjectID, answer models.QuestionAnswer) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	IncrementComments(ctx context.Context, id primitive.ObjectID, delta int64) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListByQuestion(ctx context.Context, questionID primitive.ObjectID, page db.Page) ([]models.Comment, int64, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type RequestStore interface {
	Create(ctx context.Context, req *models.Request) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	List(ctx context.Context, status string, page db.Page) ([]models.Request, int64, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type GuestbookStore interface {
	Create(ctx context.Context, note *models.GuestbookNote) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.GuestbookNote, error)
	List(ctx context.Context, page db.Page) ([]models.GuestbookNote, int64, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type AdminStore interface {
	Create(ctx context.Context, admin *models.Admin) error
	FindByLogin(ctx context.Context, login string) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type ErrorLogStore interface {
	Create(ctx context.Context, entry *models.ErrorLog) error
	List(ctx context.Context, page db.Page) ([]models.ErrorLog, int64, error)
}

// Publisher fans debate events out to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, debateID, eventType string, payload interface{}) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }

// parseID converts a hex id; malformed ids read as missing entities.
func parseID(what, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, NotFoundError(what + " not found")
	}
	return id, nil
}

// normalizePage clamps paging input to sane bounds.
func normalizePage(page, limit, defaultLimit int) db.Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return db.Page{Page: page, Limit: limit}
}

const anonymousNickname = "anonymous"

func nicknameOrAnonymous(nickname string, anonymous bool) string {
	if anonymous {
		return anonymousNickname
	}
	if n := trimmed(nickname); n != "" {
		return n
	}
	return anonymousNickname
}
