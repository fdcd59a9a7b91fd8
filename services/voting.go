package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"pollhub/db"
	"pollhub/models"

	"github.com/rs/zerolog/log"
)

// Live event types
const (
	EventResults = "results"
	EventTotals  = "totals"
	EventOpinion = "opinion"
)

// VoteInput is a ballot as submitted by a client
type VoteInput struct {
	OptionIDs []string
	VoterName string
}

// OptionResult is the tally of one option
type OptionResult struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Order      int    `json:"order"`
	VoteCount  int64  `json:"vote_count"`
	Percentage int    `json:"percentage"`
}

// Results is the public result view of a debate
type Results struct {
	DebateID     string         `json:"debate_id"`
	Options      []OptionResult `json:"options"`
	TotalVotes   int64          `json:"total_votes"`
	UniqueVoters int64          `json:"unique_voters"`
}

// Stats is the agree/disagree summary of a two-sided debate
type Stats struct {
	AgreeCount    int64 `json:"agree_count"`
	DisagreeCount int64 `json:"disagree_count"`
	TotalVotes    int64 `json:"total_votes"`
	UniqueVoters  int64 `json:"unique_voters"`
	HasVoted      bool  `json:"has_voted"`
}

// VotingService casts ballots and aggregates results. Duplicate protection
// rests on the (debate_id, voter_ip_hash) uniqueness of the vote store.
type VotingService struct {
	debates   DebateStore
	votes     VoteStore
	publisher Publisher
	now       func() time.Time
}

func NewVotingService(debates DebateStore, votes VoteStore, publisher Publisher) *VotingService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &VotingService{debates: debates, votes: votes, publisher: publisher, now: time.Now}
}

// CanVote reports whether fingerprint may still vote on debate. It is a UX
// hint only; CastVote does not rely on it.
func (s *VotingService) CanVote(ctx context.Context, debate *models.Debate, fingerprint string) (bool, error) {
	if debate.IsDeleted || debate.StatusAt(s.now()) != models.DebateStatusActive {
		return false, nil
	}
	voted, err := s.votes.Exists(ctx, debate.ID, fingerprint)
	if err != nil {
		return false, InternalError("failed to check vote", err)
	}
	return !voted, nil
}

// HasVoted reports whether fingerprint already voted on debate.
func (s *VotingService) HasVoted(ctx context.Context, debate *models.Debate, fingerprint string) (bool, error) {
	voted, err := s.votes.Exists(ctx, debate.ID, fingerprint)
	if err != nil {
		return false, InternalError("failed to check vote", err)
	}
	return voted, nil
}

// CastVote records a ballot and returns the fresh results, or nil results
// when they are hidden until the debate ends.
func (s *VotingService) CastVote(ctx context.Context, debateID string, in VoteInput, fingerprint string) (*Results, error) {
	if len(in.OptionIDs) == 0 {
		return nil, ValidationError("at least one option must be selected")
	}
	id, err := parseID("debate", debateID)
	if err != nil {
		return nil, err
	}
	debate, err := s.debates.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("debate", err)
	}
	if debate.IsDeleted {
		return nil, NotFoundError("debate not found")
	}
	if err := validateSelection(debate, in.OptionIDs); err != nil {
		return nil, err
	}
	now := s.now()
	if debate.StatusAt(now) != models.DebateStatusActive {
		return nil, ErrVotingClosed
	}

	vote := &models.Vote{
		DebateID:    id,
		VoterIPHash: fingerprint,
		VoterName:   trimmed(in.VoterName),
		OptionIDs:   in.OptionIDs,
		CreatedAt:   now,
	}
	if err := s.votes.Insert(ctx, vote); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return nil, ErrAlreadyVoted
		}
		return nil, InternalError("failed to record vote", err)
	}

	entry := models.VoteEntry{VoterIPHash: fingerprint, OptionIDs: in.OptionIDs, VotedAt: now}
	if err := s.debates.ApplyVote(ctx, id, entry); err != nil {
		if delErr := s.votes.Delete(ctx, vote.ID); delErr != nil {
			log.Error().Err(delErr).Str("debate_id", debateID).Msg("failed to roll back vote")
		}
		return nil, storeErr("debate", err)
	}

	updated, err := s.debates.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("debate", err)
	}
	eventType, payload := snapshot(updated, now)
	s.publish(ctx, debateID, eventType, payload)
	if results, ok := payload.(Results); ok {
		return &results, nil
	}
	return nil, nil
}

// Snapshot describes the current tally of a debate as a live event: full
// results when they are visible, totals only otherwise.
func (s *VotingService) Snapshot(ctx context.Context, debateID string) (string, interface{}, error) {
	debate, err := loadDebate(ctx, s.debates, debateID)
	if err != nil {
		return "", nil, err
	}
	eventType, payload := snapshot(debate, s.now())
	return eventType, payload, nil
}

func snapshot(debate *models.Debate, now time.Time) (string, interface{}) {
	results := GetResults(debate)
	if ResultsVisible(debate, now) {
		return EventResults, results
	}
	return EventTotals, map[string]int64{
		"total_votes":   results.TotalVotes,
		"unique_voters": results.UniqueVoters,
	}
}

func (s *VotingService) publish(ctx context.Context, debateID, eventType string, payload interface{}) {
	if err := s.publisher.Publish(ctx, debateID, eventType, payload); err != nil {
		log.Warn().Err(err).Str("debate_id", debateID).Str("event", eventType).Msg("failed to publish live event")
	}
}

// Results returns the results of a debate if the caller may see them.
func (s *VotingService) Results(ctx context.Context, debateID string) (*Results, error) {
	debate, err := loadDebate(ctx, s.debates, debateID)
	if err != nil {
		return nil, err
	}
	if !ResultsVisible(debate, s.now()) {
		return nil, AuthorizationError("results are hidden until the debate ends")
	}
	results := GetResults(debate)
	return &results, nil
}

// Stats returns the agree/disagree summary for a debate, taking the first
// two options by order as agree and disagree. Both stay zero while results
// are hidden.
func (s *VotingService) Stats(ctx context.Context, debateID, fingerprint string) (*Stats, error) {
	debate, err := loadDebate(ctx, s.debates, debateID)
	if err != nil {
		return nil, err
	}
	voted, err := s.HasVoted(ctx, debate, fingerprint)
	if err != nil {
		return nil, err
	}

	options := sortedOptions(debate.Options)
	stats := &Stats{
		TotalVotes:   debate.Stats.TotalVotes,
		UniqueVoters: debate.Stats.UniqueVoters,
		HasVoted:     voted,
	}
	if !ResultsVisible(debate, s.now()) {
		return stats, nil
	}
	if len(options) > 0 {
		stats.AgreeCount = options[0].VoteCount
	}
	if len(options) > 1 {
		stats.DisagreeCount = options[1].VoteCount
	}
	return stats, nil
}

// GetResults computes per-option percentages of total_votes. A debate with
// no votes reports zero for every option.
func GetResults(debate *models.Debate) Results {
	total := debate.Stats.TotalVotes
	options := sortedOptions(debate.Options)
	out := make([]OptionResult, 0, len(options))
	for _, o := range options {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(o.VoteCount) / float64(total) * 100))
		}
		out = append(out, OptionResult{
			ID:         o.ID,
			Label:      o.Label,
			Order:      o.Order,
			VoteCount:  o.VoteCount,
			Percentage: pct,
		})
	}
	return Results{
		DebateID:     debate.ID.Hex(),
		Options:      out,
		TotalVotes:   total,
		UniqueVoters: debate.Stats.UniqueVoters,
	}
}

// ResultsVisible reports whether unprivileged clients may see the tallies.
func ResultsVisible(debate *models.Debate, now time.Time) bool {
	return debate.Settings.ShowResultsBeforeEnd || debate.StatusAt(now) == models.DebateStatusEnded
}

func validateSelection(debate *models.Debate, optionIDs []string) error {
	if len(optionIDs) > 1 && !debate.Settings.AllowMultipleChoice {
		return ValidationError("only one option may be selected")
	}
	seen := make(map[string]struct{}, len(optionIDs))
	for _, id := range optionIDs {
		if debate.FindOption(id) == nil {
			return ValidationError("unknown option: " + id)
		}
		if _, dup := seen[id]; dup {
			return ValidationError("option selected more than once: " + id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func sortedOptions(options []models.VoteOption) []models.VoteOption {
	out := make([]models.VoteOption, len(options))
	copy(out, options)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// loadDebate fetches a live (not soft-deleted) debate by hex id.
func loadDebate(ctx context.Context, store DebateStore, debateID string) (*models.Debate, error) {
	id, err := parseID("debate", debateID)
	if err != nil {
		return nil, err
	}
	debate, err := store.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("debate", err)
	}
	if debate.IsDeleted {
		return nil, NotFoundError("debate not found")
	}
	return debate, nil
}
