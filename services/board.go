package services

import (
	"context"
	"time"

	"pollhub/models"
	"pollhub/utils"
)

const MaxRequestLength = 5000

// CreateRequestInput describes a new request board entry
type CreateRequestInput struct {
	AuthorNickname string
	Title          string
	Content        string
	Category       string
	Password       string
}

// RequestList is one page of the request board
type RequestList struct {
	Requests []models.Request `json:"requests"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

type RequestService struct {
	requests RequestStore
	now      func() time.Time
}

func NewRequestService(requests RequestStore) *RequestService {
	return &RequestService{requests: requests, now: time.Now}
}

func (s *RequestService) Create(ctx context.Context, in CreateRequestInput) (*models.Request, error) {
	title, err := requireText("title", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	content, err := requireText("content", in.Content, MaxRequestLength)
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
	req := &models.Request{
		AuthorNickname: nicknameOrAnonymous(nickname, false),
		Title:          title,
		Content:        content,
		Category:       trimmed(in.Category),
		Password:       hash,
		Status:         models.RequestStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, InternalError("failed to create request", err)
	}
	return req, nil
}

func (s *RequestService) List(ctx context.Context, status string, page, limit int) (*RequestList, error) {
	if status != "" && !models.IsValidRequestStatus(status) {
		return nil, ValidationError("unknown status: " + status)
	}
	p := normalizePage(page, limit, 20)
	items, total, err := s.requests.List(ctx, status, p)
	if err != nil {
		return nil, InternalError("failed to list requests", err)
	}
	return &RequestList{Requests: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

// Delete soft-deletes a request by its password, or unconditionally for admins.
func (s *RequestService) Delete(ctx context.Context, requestID, password string, asAdmin bool) error {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}
	if !asAdmin && !utils.CheckPasswordHash(password, req.Password) {
		return ErrInvalidPassword
	}
	if err := s.requests.SoftDelete(ctx, req.ID); err != nil {
		return storeErr("request", err)
	}
	return nil
}

func (s *RequestService) SetStatus(ctx context.Context, requestID, status string) error {
	if !models.IsValidRequestStatus(status) {
		return ValidationError("unknown status: " + status)
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.requests.SetStatus(ctx, req.ID, status); err != nil {
		return storeErr("request", err)
	}
	return nil
}

func (s *RequestService) load(ctx context.Context, requestID string) (*models.Request, error) {
	id, err := parseID("request", requestID)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("request", err)
	}
	if req.IsDeleted {
		return nil, NotFoundError("request not found")
	}
	return req, nil
}

// GuestbookInput is a guestbook note as submitted by a client
type GuestbookInput struct {
	AuthorNickname string
	Content        string
	Password       string
}

// GuestbookList is one page of guestbook notes, newest first
type GuestbookList struct {
	Notes []models.GuestbookNote `json:"notes"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

type GuestbookService struct {
	notes GuestbookStore
	now   func() time.Time
}

func NewGuestbookService(notes GuestbookStore) *GuestbookService {
	return &GuestbookService{notes: notes, now: time.Now}
}

func (s *GuestbookService) Create(ctx context.Context, in GuestbookInput) (*models.GuestbookNote, error) {
	content, err := requireText("content", in.Content, MaxGuestbookLength)
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
	note := &models.GuestbookNote{
		AuthorNickname: nicknameOrAnonymous(nickname, false),
		Content:        content,
		Password:       hash,
		CreatedAt:      s.now(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, InternalError("failed to create note", err)
	}
	return note, nil
}

func (s *GuestbookService) List(ctx context.Context, page, limit int) (*GuestbookList, error) {
	p := normalizePage(page, limit, 20)
	items, total, err := s.notes.List(ctx, p)
	if err != nil {
		return nil, InternalError("failed to list notes", err)
	}
	return &GuestbookList{Notes: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

// Delete soft-deletes a note by its password, or unconditionally for admins.
func (s *GuestbookService) Delete(ctx context.Context, noteID, password string, asAdmin bool) error {
	id, err := parseID("note", noteID)
	if err != nil {
		return err
	}
	note, err := s.notes.FindByID(ctx, id)
	if err != nil {
		return storeErr("note", err)
	}
	if note.IsDeleted {
		return NotFoundError("note not found")
	}
	if !asAdmin && !utils.CheckPasswordHash(password, note.Password) {
		return ErrInvalidPassword
	}
	if err := s.notes.SoftDelete(ctx, note.ID); err != nil {
		return storeErr("note", err)
	}
	return nil
}
