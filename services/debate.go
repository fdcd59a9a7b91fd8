package services

import (
	"context"
	"strings"
	"time"

	"pollhub/db"
	"pollhub/models"
	"pollhub/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CreateDebateInput describes a new debate
type CreateDebateInput struct {
	Title          string
	Description    string
	Category       string
	Tags           []string
	AuthorNickname string
	AdminPassword  string
	Options        []string
	Settings       models.DebateSettings
	StartAt        *time.Time
	EndAt          *time.Time
}

// UpdateDebateInput carries author edits; nil fields are left unchanged
type UpdateDebateInput struct {
	Title       *string
	Description *string
	Tags        []string
	EndAt       *time.Time
	ClearEndAt  bool
	Settings    *models.DebateSettings
}

// ListDebatesInput filters and pages a debate listing
type ListDebatesInput struct {
	Status   string
	Category string
	Tag      string
	Page     int
	Limit    int
}

// DebateView is a debate as shown to a client. Vote counts are zeroed while
// results are hidden.
type DebateView struct {
	*models.Debate
	Status         string `json:"status"`
	ResultsVisible bool   `json:"results_visible"`
	HasVoted       bool   `json:"has_voted"`
}

// DebateList is one page of debates
type DebateList struct {
	Debates []DebateView `json:"debates"`
	Total   int64        `json:"total"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
}

// DebateService manages the debate lifecycle on behalf of authors and admins
type DebateService struct {
	debates DebateStore
	voting  *VotingService
	now     func() time.Time
}

func NewDebateService(debates DebateStore, voting *VotingService) *DebateService {
	return &DebateService{debates: debates, voting: voting, now: time.Now}
}

func (s *DebateService) Create(ctx context.Context, in CreateDebateInput) (*DebateView, error) {
	title, err := requireText("title", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	if err := requirePassword(in.AdminPassword); err != nil {
		return nil, err
	}
	options, err := buildOptions(in.Options)
	if err != nil {
		return nil, err
	}
	if err := validateSettings(in.Settings); err != nil {
		return nil, err
	}
	nickname, err := optionalText("author_nickname", in.AuthorNickname, MaxNicknameLength)
	if err != nil {
		return nil, err
	}

	now := s.now()
	startAt := now
	if in.StartAt != nil {
		startAt = *in.StartAt
	}
	if in.EndAt != nil && !in.EndAt.After(startAt) {
		return nil, ValidationError("end_at must be after start_at")
	}

	hash, err := utils.HashPassword(in.AdminPassword)
	if err != nil {
		return nil, InternalError("failed to hash password", err)
	}

	debate := &models.Debate{
		Title:          title,
		Description:    trimmed(in.Description),
		Category:       trimmed(in.Category),
		Tags:           cleanTags(in.Tags),
		AuthorNickname: nicknameOrAnonymous(nickname, false),
		AdminPassword:  hash,
		Options:        options,
		Settings:       in.Settings,
		StartAt:        startAt,
		EndAt:          in.EndAt,
		Votes:          []models.VoteEntry{},
		Opinions:       []models.Opinion{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.debates.Create(ctx, debate); err != nil {
		return nil, InternalError("failed to create debate", err)
	}
	log.Info().Str("debate_id", debate.ID.Hex()).Msg("debate created")
	return s.view(debate, false), nil
}

// Get returns a debate and counts the view.
func (s *DebateService) Get(ctx context.Context, debateID, fingerprint string) (*DebateView, error) {
	debate, err := loadDebate(ctx, s.debates, debateID)
	if err != nil {
		return nil, err
	}
	if err := s.debates.IncrementViews(ctx, debate.ID); err != nil {
		log.Warn().Err(err).Str("debate_id", debateID).Msg("failed to count view")
	} else {
		debate.Stats.ViewCount++
	}
	voted, err := s.voting.HasVoted(ctx, debate, fingerprint)
	if err != nil {
		return nil, err
	}
	return s.view(debate, voted), nil
}

// Find returns a live debate without side effects.
func (s *DebateService) Find(ctx context.Context, debateID string) (*models.Debate, error) {
	return loadDebate(ctx, s.debates, debateID)
}

func (s *DebateService) List(ctx context.Context, in ListDebatesInput) (*DebateList, error) {
	switch in.Status {
	case "", models.DebateStatusScheduled, models.DebateStatusActive, models.DebateStatusEnded:
	default:
		return nil, ValidationError("unknown status: " + in.Status)
	}
	page := normalizePage(in.Page, in.Limit, 20)
	filter := db.DebateFilter{
		Status:   in.Status,
		Category: trimmed(in.Category),
		Tag:      trimmed(in.Tag),
		Now:      s.now(),
	}
	items, total, err := s.debates.List(ctx, filter, page)
	if err != nil {
		return nil, InternalError("failed to list debates", err)
	}
	out := &DebateList{Debates: make([]DebateView, 0, len(items)), Total: total, Page: page.Page, Limit: page.Limit}
	for i := range items {
		out.Debates = append(out.Debates, *s.view(&items[i], false))
	}
	return out, nil
}

// Update applies author edits after checking the debate password.
func (s *DebateService) Update(ctx context.Context, debateID, password string, in UpdateDebateInput) (*DebateView, error) {
	debate, err := loadDebate(ctx, s.debates, debateID)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, debate.AdminPassword) {
		return nil, ErrInvalidPassword
	}

	u := db.DebateUpdate{ClearEndAt: in.ClearEndAt, EndAt: in.EndAt, Settings: in.Settings}
	if in.Title != nil {
		title, err := requireText("title", *in.Title, MaxTitleLength)
		if err != nil {
			return nil, err
		}
		u.Title = &title
	}
	if in.Description != nil {
		desc := trimmed(*in.Description)
		u.Description = &desc
	}
	if in.Tags != nil {
		u.Tags = cleanTags(in.Tags)
	}
	if in.Settings != nil {
		if err := validateSettings(*in.Settings); err != nil {
			return nil, err
		}
		// Ballots with several options would no longer add up to total_votes.
		if debate.Settings.AllowMultipleChoice && !in.Settings.AllowMultipleChoice && debate.Stats.TotalVotes > 0 {
			return nil, ValidationError("multiple choice cannot be disabled once votes have been cast")
		}
	}
	if !in.ClearEndAt && in.EndAt != nil && !in.EndAt.After(debate.StartAt) {
		return nil, ValidationError("end_at must be after start_at")
	}

	if err := s.debates.Update(ctx, debate.ID, u); err != nil {
		return nil, storeErr("debate", err)
	}
	updated, err := s.debates.FindByID(ctx, debate.ID)
	if err != nil {
		return nil, storeErr("debate", err)
	}
	return s.view(updated, false), nil
}

// Delete soft-deletes a debate. Admins skip the password check.
func (s *DebateService) Delete(ctx context.Context, debateID, password string, asAdmin bool) error {
	debate, err := loadDebate(ctx, s.debates, debateID)
	if err != nil {
		return err
	}
	if !asAdmin && !utils.CheckPasswordHash(password, debate.AdminPassword) {
		return ErrInvalidPassword
	}
	if err := s.debates.SoftDelete(ctx, debate.ID); err != nil {
		return storeErr("debate", err)
	}
	log.Info().Str("debate_id", debateID).Bool("admin", asAdmin).Msg("debate deleted")
	return nil
}

func (s *DebateService) view(debate *models.Debate, hasVoted bool) *DebateView {
	now := s.now()
	v := &DebateView{
		Debate:         debate,
		Status:         debate.StatusAt(now),
		ResultsVisible: ResultsVisible(debate, now),
		HasVoted:       hasVoted,
	}
	if !v.ResultsVisible {
		hidden := *debate
		hidden.Options = make([]models.VoteOption, len(debate.Options))
		for i, o := range debate.Options {
			o.VoteCount = 0
			hidden.Options[i] = o
		}
		v.Debate = &hidden
	}
	return v
}

func buildOptions(labels []string) ([]models.VoteOption, error) {
	if len(labels) < 2 {
		return nil, ValidationError("at least two options are required")
	}
	seen := make(map[string]struct{}, len(labels))
	options := make([]models.VoteOption, 0, len(labels))
	for i, label := range labels {
		label, err := requireText("option label", label, MaxTitleLength)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(label)
		if _, dup := seen[key]; dup {
			return nil, ValidationError("option labels must be unique")
		}
		seen[key] = struct{}{}
		options = append(options, models.VoteOption{ID: uuid.NewString(), Label: label, Order: i})
	}
	return options, nil
}

func validateSettings(s models.DebateSettings) error {
	if s.MaxVotesPerIP != nil && *s.MaxVotesPerIP < 1 {
		return ValidationError("max_votes_per_ip must be at least 1")
	}
	return nil
}
