package services

import (
	"context"
	"sort"
	"time"

	"pollhub/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OpinionInput is a free-text opinion as submitted by a client
type OpinionInput struct {
	AuthorNickname   string
	SelectedOptionID string
	Content          string
	IsAnonymous      bool
}

// OpinionPage is one page of a debate's opinions, newest first
type OpinionPage struct {
	Opinions    []models.Opinion `json:"opinions"`
	Total       int              `json:"total"`
	LastUpdated *time.Time       `json:"last_updated"`
}

type OpinionService struct {
	debates   DebateStore
	publisher Publisher
	now       func() time.Time
}

func NewOpinionService(debates DebateStore, publisher Publisher) *OpinionService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &OpinionService{debates: debates, publisher: publisher, now: time.Now}
}

// AddOpinion appends an opinion to a debate that accepts them.
func (s *OpinionService) AddOpinion(ctx context.Context, debateID string, in OpinionInput, fingerprint string) (*models.Opinion, error) {
	content, err := requireText("content", in.Content, MaxOpinionLength)
	if err != nil {
		return nil, err
	}
	debate, err := loadDebate(ctx, s.debates, debateID)
	if err != nil {
		return nil, err
	}
	if !debate.Settings.AllowOpinion {
		return nil, ValidationError("opinions are disabled for this debate")
	}
	if in.SelectedOptionID != "" && debate.FindOption(in.SelectedOptionID) == nil {
		return nil, ValidationError("unknown option: " + in.SelectedOptionID)
	}
	nickname, err := optionalText("author_nickname", in.AuthorNickname, MaxNicknameLength)
	if err != nil {
		return nil, err
	}
	if !debate.Settings.AllowAnonymous {
		if in.IsAnonymous {
			return nil, ValidationError("anonymous opinions are disabled for this debate")
		}
		if nickname == "" {
			return nil, ValidationError("author_nickname is required")
		}
	}

	opinion := models.Opinion{
		ID:               uuid.NewString(),
		AuthorNickname:   nicknameOrAnonymous(nickname, in.IsAnonymous),
		SelectedOptionID: in.SelectedOptionID,
		Content:          content,
		IsAnonymous:      in.IsAnonymous,
		VoterIPHash:      fingerprint,
		CreatedAt:        s.now(),
	}
	if err := s.debates.AppendOpinion(ctx, debate.ID, opinion); err != nil {
		return nil, storeErr("debate", err)
	}
	if err := s.publisher.Publish(ctx, debateID, EventOpinion, opinion); err != nil {
		log.Warn().Err(err).Str("debate_id", debateID).Msg("failed to publish opinion")
	}
	return &opinion, nil
}

// ListOpinions pages through a debate's opinions, newest first. Debates with
// opinions disabled report an empty list.
func (s *OpinionService) ListOpinions(ctx context.Context, debateID string, page, limit int) (*OpinionPage, error) {
	debate, err := loadDebate(ctx, s.debates, debateID)
	if err != nil {
		return nil, err
	}
	out := &OpinionPage{Opinions: []models.Opinion{}}
	if !debate.Settings.AllowOpinion {
		return out, nil
	}

	opinions := make([]models.Opinion, len(debate.Opinions))
	copy(opinions, debate.Opinions)
	sort.SliceStable(opinions, func(i, j int) bool {
		return opinions[i].CreatedAt.After(opinions[j].CreatedAt)
	})

	out.Total = len(opinions)
	if len(opinions) > 0 {
		last := opinions[0].CreatedAt
		out.LastUpdated = &last
	}

	p := normalizePage(page, limit, 20)
	start := int(p.Skip())
	if start >= len(opinions) {
		return out, nil
	}
	end := start + p.Limit
	if end > len(opinions) {
		end = len(opinions)
	}
	out.Opinions = opinions[start:end]
	return out, nil
}
