package services

import (
	"context"
	"time"

	"pollhub/models"
	"pollhub/utils"

	"github.com/rs/zerolog/log"
)

// CommentInput is a comment as submitted by a client
type CommentInput struct {
	AuthorNickname string
	Content        string
	Password       string
}

// CommentPage is one page of a question's comments, newest first
type CommentPage struct {
	Comments []models.Comment `json:"comments"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

type CommentService struct {
	questions QuestionStore
	comments  CommentStore
	now       func() time.Time
}

func NewCommentService(questions QuestionStore, comments CommentStore) *CommentService {
	return &CommentService{questions: questions, comments: comments, now: time.Now}
}

// AddComment adds a comment. Private questions take comments only from
// callers that can read them.
func (s *CommentService) AddComment(ctx context.Context, questionID string, in CommentInput, access QuestionAccess, fingerprint string) (*models.Comment, error) {
	content, err := requireText("content", in.Content, MaxCommentLength)
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
	q, err := s.loadReadable(ctx, questionID, access)
	if err != nil {
		return nil, err
	}
	if !q.AllowComments {
		return nil, ValidationError("comments are disabled for this question")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, InternalError("failed to hash password", err)
	}
	c := &models.Comment{
		QuestionID:     q.ID,
		AuthorNickname: nicknameOrAnonymous(nickname, false),
		Content:        content,
		Password:       hash,
		VoterIPHash:    fingerprint,
		CreatedAt:      s.now(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, InternalError("failed to create comment", err)
	}
	if err := s.questions.IncrementComments(ctx, q.ID, 1); err != nil {
		log.Warn().Err(err).Str("question_id", questionID).Msg("failed to bump comment count")
	}
	return c, nil
}

func (s *CommentService) ListComments(ctx context.Context, questionID string, access QuestionAccess, page, limit int) (*CommentPage, error) {
	q, err := s.loadReadable(ctx, questionID, access)
	if err != nil {
		return nil, err
	}
	p := normalizePage(page, limit, 50)
	items, total, err := s.comments.ListByQuestion(ctx, q.ID, p)
	if err != nil {
		return nil, InternalError("failed to list comments", err)
	}
	return &CommentPage{Comments: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

// DeleteComment soft-deletes a comment by its password, or unconditionally
// for admins.
func (s *CommentService) DeleteComment(ctx context.Context, questionID, commentID, password string, asAdmin bool) error {
	q, err := s.loadQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	id, err := parseID("comment", commentID)
	if err != nil {
		return err
	}
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return storeErr("comment", err)
	}
	if c.QuestionID != q.ID || c.IsDeleted {
		return NotFoundError("comment not found")
	}
	if !asAdmin && !utils.CheckPasswordHash(password, c.Password) {
		return ErrInvalidPassword
	}
	if err := s.comments.SoftDelete(ctx, c.ID); err != nil {
		return storeErr("comment", err)
	}
	if err := s.questions.IncrementComments(ctx, q.ID, -1); err != nil {
		log.Warn().Err(err).Str("question_id", questionID).Msg("failed to decrement comment count")
	}
	return nil
}

func (s *CommentService) loadQuestion(ctx context.Context, questionID string) (*models.Question, error) {
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

func (s *CommentService) loadReadable(ctx context.Context, questionID string, access QuestionAccess) (*models.Question, error) {
	q, err := s.loadQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if !access.unlocks(q) {
		return nil, AuthenticationError("this question is private")
	}
	return q, nil
}
