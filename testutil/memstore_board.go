package testutil

import (
	"context"
	"sync"
	"time"

	"pollhub/db"
	"pollhub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestionStore keeps Q&A questions
type QuestionStore struct {
	mu        sync.Mutex
	questions map[primitive.ObjectID]models.Question
}

func NewQuestionStore() *QuestionStore {
	return &QuestionStore{questions: make(map[primitive.ObjectID]models.Question)}
}

func (s *QuestionStore) Create(_ context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&q.ID)
	s.questions[q.ID] = *q
	return nil
}

func (s *QuestionStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &q, nil
}

func (s *QuestionStore) List(_ context.Context, status string, page db.Page) ([]models.Question, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Question
	for _, q := range s.questions {
		if q.IsDeleted || (status != "" && q.Status != status) {
			continue
		}
		out = append(out, q)
	}
	newestFirst(out, func(q models.Question) time.Time { return q.CreatedAt })
	return paginate(out, page), int64(len(out)), nil
}

func (s *QuestionStore) SetAnswer(_ context.Context, id primitive.ObjectID, answer models.QuestionAnswer) error {
	return s.mutate(id, true, func(q *models.Question) {
		q.Answer = &answer
		q.Status = models.QuestionStatusAnswered
	})
}

func (s *QuestionStore) SetStatus(_ context.Context, id primitive.ObjectID, status string) error {
	return s.mutate(id, true, func(q *models.Question) { q.Status = status })
}

func (s *QuestionStore) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	return s.mutate(id, false, func(q *models.Question) { q.ViewCount++ })
}

func (s *QuestionStore) IncrementComments(_ context.Context, id primitive.ObjectID, delta int64) error {
	return s.mutate(id, false, func(q *models.Question) { q.CommentCount += delta })
}

func (s *QuestionStore) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	return s.mutate(id, true, func(q *models.Question) { q.IsDeleted = true })
}

func (s *QuestionStore) mutate(id primitive.ObjectID, liveOnly bool, fn func(*models.Question)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok || (liveOnly && q.IsDeleted) {
		return db.ErrNotFound
	}
	fn(&q)
	s.questions[id] = q
	return nil
}

// CommentStore keeps question comments
type CommentStore struct {
	mu       sync.Mutex
	comments map[primitive.ObjectID]models.Comment
}

func NewCommentStore() *CommentStore {
	return &CommentStore{comments: make(map[primitive.ObjectID]models.Comment)}
}

func (s *CommentStore) Create(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&c.ID)
	s.comments[c.ID] = *c
	return nil
}

func (s *CommentStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (s *CommentStore) ListByQuestion(_ context.Context, questionID primitive.ObjectID, page db.Page) ([]models.Comment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Comment
	for _, c := range s.comments {
		if c.QuestionID == questionID {
			out = append(out, c)
		}
	}
	newestFirst(out, func(c models.Comment) time.Time { return c.CreatedAt })
	return paginate(out, page), int64(len(out)), nil
}

func (s *CommentStore) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || c.IsDeleted {
		return db.ErrNotFound
	}
	c.IsDeleted = true
	s.comments[id] = c
	return nil
}

// RequestStore keeps request board entries
type RequestStore struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]models.Request
}

func NewRequestStore() *RequestStore {
	return &RequestStore{requests: make(map[primitive.ObjectID]models.Request)}
}

func (s *RequestStore) Create(_ context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&r.ID)
	s.requests[r.ID] = *r
	return nil
}

func (s *RequestStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &r, nil
}

func (s *RequestStore) List(_ context.Context, status string, page db.Page) ([]models.Request, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Request
	for _, r := range s.requests {
		if r.IsDeleted || (status != "" && r.Status != status) {
			continue
		}
		out = append(out, r)
	}
	newestFirst(out, func(r models.Request) time.Time { return r.CreatedAt })
	return paginate(out, page), int64(len(out)), nil
}

func (s *RequestStore) SetStatus(_ context.Context, id primitive.ObjectID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.IsDeleted {
		return db.ErrNotFound
	}
	r.Status = status
	s.requests[id] = r
	return nil
}

func (s *RequestStore) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.IsDeleted {
		return db.ErrNotFound
	}
	r.IsDeleted = true
	s.requests[id] = r
	return nil
}

// GuestbookStore keeps guestbook notes
type GuestbookStore struct {
	mu    sync.Mutex
	notes map[primitive.ObjectID]models.GuestbookNote
}

func NewGuestbookStore() *GuestbookStore {
	return &GuestbookStore{notes: make(map[primitive.ObjectID]models.GuestbookNote)}
}

func (s *GuestbookStore) Create(_ context.Context, n *models.GuestbookNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&n.ID)
	s.notes[n.ID] = *n
	return nil
}

func (s *GuestbookStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.GuestbookNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &n, nil
}

func (s *GuestbookStore) List(_ context.Context, page db.Page) ([]models.GuestbookNote, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GuestbookNote
	for _, n := range s.notes {
		if !n.IsDeleted {
			out = append(out, n)
		}
	}
	newestFirst(out, func(n models.GuestbookNote) time.Time { return n.CreatedAt })
	return paginate(out, page), int64(len(out)), nil
}

func (s *GuestbookStore) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.IsDeleted {
		return db.ErrNotFound
	}
	n.IsDeleted = true
	s.notes[id] = n
	return nil
}

// AdminStore keeps admins unique by username and email
type AdminStore struct {
	mu     sync.Mutex
	admins []models.Admin
}

func NewAdminStore() *AdminStore { return &AdminStore{} }

func (s *AdminStore) Create(_ context.Context, a *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if existing.Username == a.Username || existing.Email == a.Email {
			return db.ErrDuplicateKey
		}
	}
	assignID(&a.ID)
	s.admins = append(s.admins, *a)
	return nil
}

func (s *AdminStore) FindByLogin(_ context.Context, login string) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Username == login || a.Email == login {
			out := a
			return &out, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *AdminStore) List(_ context.Context) ([]models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Admin{}, s.admins...)
	newestFirst(out, func(a models.Admin) time.Time { return a.CreatedAt })
	return out, nil
}

func (s *AdminStore) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.admins {
		if s.admins[i].ID == id {
			s.admins[i].LastLoginAt = &at
			return nil
		}
	}
	return db.ErrNotFound
}

// ErrorLogStore keeps error log entries
type ErrorLogStore struct {
	mu      sync.Mutex
	entries []models.ErrorLog
}

func NewErrorLogStore() *ErrorLogStore { return &ErrorLogStore{} }

func (s *ErrorLogStore) Create(_ context.Context, e *models.ErrorLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&e.ID)
	s.entries = append(s.entries, *e)
	return nil
}

func (s *ErrorLogStore) List(_ context.Context, page db.Page) ([]models.ErrorLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.ErrorLog{}, s.entries...)
	newestFirst(out, func(e models.ErrorLog) time.Time { return e.CreatedAt })
	return paginate(out, page), int64(len(out)), nil
}
