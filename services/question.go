package services

import (
	"context"
	"time"

	"pollhub/models"
	"pollhub/utils"

	"github.com/rs/zerolog/log"
)

const MaxQuestionLength = 5000

// CreateQuestionInput describes a new Q&A board question
type CreateQuestionInput struct {
	AuthorNickname string
	Title          string
	Content        string
	Password       string
	IsPrivate      bool
	AllowComments  bool
}

// QuestionView is a question as shown to a client. Locked private
// questions carry only their title.
type QuestionView struct {
	*models.Question
	Locked bool `json:"locked"`
}

// QuestionList is one page of the Q&A board
type QuestionList struct {
	Questions []QuestionView `json:"questions"`
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	Limit     int            `json:"limit"`
}

type QuestionService struct {
	questions QuestionStore
	now       func() time.Time
}

func NewQuestionService(questions QuestionStore) *QuestionService {
	return &QuestionService{questions: questions, now: time.Now}
}

func (s *QuestionService) Create(ctx context.Context, in CreateQuestionInput) (*models.Question, error) {
	title, err := requireText("title", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	content, err := requireText("content", in.Content, MaxQuestionLength)
	if err != nil {
		return nil, err
	}
	if err := requirePassword(in.Password); err != nil {
		return nil, err
	}
	nickname, err := optionalText("author_nickname", in.AuthorNickname, MaxNicknameLength)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, InternalError("failed to hash password", err)
	}

	now := s.now()
	q := &models.Question{
		AuthorNickname: nicknameOrAnonymous(nickname, false),
		Title:          title,
		Content:        content,
		Password:       hash,
		IsPrivate:      in.IsPrivate,
		AllowComments:  in.AllowComments,
		Status:         models.QuestionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, InternalError("failed to create question", err)
	}
	return q, nil
}

// List pages through the board. Private questions show their title only.
func (s *QuestionService) List(ctx context.Context, status string, page, limit int) (*QuestionList, error) {
	switch status {
	case "", models.QuestionStatusPending, models.QuestionStatusAnswered, models.QuestionStatusClosed:
	default:
		return nil, ValidationError("unknown status: " + status)
	}
	p := normalizePage(page, limit, 20)
	items, total, err := s.questions.List(ctx, status, p)
	if err != nil {
		return nil, InternalError("failed to list questions", err)
	}
	out := &QuestionList{Questions: make([]QuestionView, 0, len(items)), Total: total, Page: p.Page, Limit: p.Limit}
	for i := range items {
		out.Questions = append(out.Questions, questionView(&items[i], !items[i].IsPrivate))
	}
	return out, nil
}

// Get returns a question and counts the view. A private question is
// unlocked by its password or for admins.
func (s *QuestionService) Get(ctx context.Context, questionID, password string, isAdmin bool) (*QuestionView, error) {
	q, err := s.load(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if err := s.questions.IncrementViews(ctx, q.ID); err != nil {
		log.Warn().Err(err).Str("question_id", questionID).Msg("failed to count view")
	} else {
		q.ViewCount++
	}
	v := questionView(q, QuestionAccess{Password: password, IsAdmin: isAdmin}.unlocks(q))
	return &v, nil
}

// Verify checks the question password.
func (s *QuestionService) Verify(ctx context.Context, questionID, password string) error {
	if password == "" {
		return ValidationError("password is required")
	}
	q, err := s.load(ctx, questionID)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(password, q.Password) {
		return ErrInvalidPassword
	}
	return nil
}

// Delete soft-deletes a question. Admins skip the password check.
func (s *QuestionService) Delete(ctx context.Context, questionID, password string, asAdmin bool) error {
	q, err := s.load(ctx, questionID)
	if err != nil {
		return err
	}
	if !asAdmin && !utils.CheckPasswordHash(password, q.Password) {
		return ErrInvalidPassword
	}
	if err := s.questions.SoftDelete(ctx, q.ID); err != nil {
		return storeErr("question", err)
	}
	return nil
}

// Answer stores or replaces the admin answer. Closed questions cannot be
// answered.
func (s *QuestionService) Answer(ctx context.Context, questionID, content, answeredBy string) (*models.Question, error) {
	content, err := requireText("content", content, MaxQuestionLength)
	if err != nil {
		return nil, err
	}
	q, err := s.load(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.Status == models.QuestionStatusClosed {
		return nil, ValidationError("question is closed")
	}
	answer := models.QuestionAnswer{Content: content, AnsweredBy: answeredBy, AnsweredAt: s.now()}
	if err := s.questions.SetAnswer(ctx, q.ID, answer); err != nil {
		return nil, storeErr("question", err)
	}
	q.Answer = &answer
	q.Status = models.QuestionStatusAnswered
	return q, nil
}

// SetStatus moves a question along pending -> answered -> closed. Only
// closing is allowed here; answering goes through Answer.
func (s *QuestionService) SetStatus(ctx context.Context, questionID, status string) error {
	q, err := s.load(ctx, questionID)
	if err != nil {
		return err
	}
	if !questionTransitionAllowed(q.Status, status) {
		return ValidationError("cannot move question from " + q.Status + " to " + status)
	}
	if status == models.QuestionStatusAnswered {
		return ValidationError("use the answer endpoint to answer a question")
	}
	if err := s.questions.SetStatus(ctx, q.ID, status); err != nil {
		return storeErr("question", err)
	}
	return nil
}

func (s *QuestionService) load(ctx context.Context, questionID string) (*models.Question, error) {
	id, err := parseID("question", questionID)
	if err != nil {
		return nil, err
	}
	q, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("question", err)
	}
	if q.IsDeleted {
		return nil, NotFoundError("question not found")
	}
	return q, nil
}

func questionTransitionAllowed(from, to string) bool {
	switch from {
	case models.QuestionStatusPending:
		return to == models.QuestionStatusAnswered || to == models.QuestionStatusClosed
	case models.QuestionStatusAnswered:
		return to == models.QuestionStatusAnswered || to == models.QuestionStatusClosed
	}
	return false
}

// QuestionAccess is what a caller presents to read a private question
type QuestionAccess struct {
	Password string
	IsAdmin  bool
}

func (a QuestionAccess) unlocks(q *models.Question) bool {
	if !q.IsPrivate || a.IsAdmin {
		return true
	}
	return a.Password != "" && utils.CheckPasswordHash(a.Password, q.Password)
}

func questionView(q *models.Question, unlocked bool) QuestionView {
	if unlocked {
		return QuestionView{Question: q}
	}
	locked := *q
	locked.Content = ""
	locked.Answer = nil
	return QuestionView{Question: &locked, Locked: true}
}
