package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"pollhub/db"
	"pollhub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The stores in this file mirror the db repositories in memory. They keep
// the same uniqueness rules and return db.ErrNotFound / db.ErrDuplicateKey
// where the MongoDB repositories would.

func paginate[T any](items []T, page db.Page) []T {
	if page.Limit <= 0 {
		return items
	}
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func newestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return createdAt(items[i]).After(createdAt(items[j])) })
}

func assignID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// DebateStore keeps debates with their embedded votes and opinions
type DebateStore struct {
	mu      sync.Mutex
	debates map[primitive.ObjectID]models.Debate
	// FailApplyVote makes ApplyVote fail, to exercise vote rollback.
	FailApplyVote error
}

func NewDebateStore() *DebateStore {
	return &DebateStore{debates: make(map[primitive.ObjectID]models.Debate)}
}

func (s *DebateStore) Create(_ context.Context, debate *models.Debate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&debate.ID)
	s.debates[debate.ID] = cloneDebate(*debate)
	return nil
}

func (s *DebateStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Debate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debates[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	out := cloneDebate(d)
	return &out, nil
}

func (s *DebateStore) List(_ context.Context, f db.DebateFilter, page db.Page) ([]models.Debate, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Debate
	for _, d := range s.debates {
		if d.IsDeleted && !f.IncludeDeleted {
			continue
		}
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if f.Tag != "" && !containsTag(d.Tags, f.Tag) {
			continue
		}
		if f.Status != "" && d.StatusAt(f.Now) != f.Status {
			continue
		}
		d = cloneDebate(d)
		d.Votes, d.Opinions = nil, nil
		out = append(out, d)
	}
	newestFirst(out, func(d models.Debate) time.Time { return d.CreatedAt })
	return paginate(out, page), int64(len(out)), nil
}

func (s *DebateStore) Update(_ context.Context, id primitive.ObjectID, u db.DebateUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debates[id]
	if !ok || d.IsDeleted {
		return db.ErrNotFound
	}
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Tags != nil {
		d.Tags = u.Tags
	}
	if u.Settings != nil {
		d.Settings = *u.Settings
	}
	if u.ClearEndAt {
		d.EndAt = nil
	} else if u.EndAt != nil {
		end := *u.EndAt
		d.EndAt = &end
	}
	d.UpdatedAt = time.Now()
	s.debates[id] = d
	return nil
}

func (s *DebateStore) ApplyVote(_ context.Context, id primitive.ObjectID, entry models.VoteEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailApplyVote != nil {
		return s.FailApplyVote
	}
	d, ok := s.debates[id]
	if !ok || d.IsDeleted {
		return db.ErrNotFound
	}
	options := make([]models.VoteOption, len(d.Options))
	copy(options, d.Options)
	for i := range options {
		for _, oid := range entry.OptionIDs {
			if options[i].ID == oid {
				options[i].VoteCount++
			}
		}
	}
	d.Options = options
	d.Stats.TotalVotes++
	d.Stats.UniqueVoters++
	d.Votes = append(append([]models.VoteEntry{}, d.Votes...), entry)
	s.debates[id] = d
	return nil
}

func (s *DebateStore) AppendOpinion(_ context.Context, id primitive.ObjectID, opinion models.Opinion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debates[id]
	if !ok || d.IsDeleted {
		return db.ErrNotFound
	}
	d.Opinions = append(append([]models.Opinion{}, d.Opinions...), opinion)
	d.Stats.OpinionCount++
	s.debates[id] = d
	return nil
}

func (s *DebateStore) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debates[id]
	if !ok {
		return db.ErrNotFound
	}
	d.Stats.ViewCount++
	s.debates[id] = d
	return nil
}

func (s *DebateStore) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debates[id]
	if !ok || d.IsDeleted {
		return db.ErrNotFound
	}
	d.IsDeleted = true
	s.debates[id] = d
	return nil
}

func cloneDebate(d models.Debate) models.Debate {
	d.Options = append([]models.VoteOption(nil), d.Options...)
	d.Tags = append([]string(nil), d.Tags...)
	d.Votes = append([]models.VoteEntry(nil), d.Votes...)
	d.Opinions = append([]models.Opinion(nil), d.Opinions...)
	return d
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

type voteKey struct {
	debateID primitive.ObjectID
	hash     string
}

// VoteStore enforces one vote per (debate, fingerprint)
type VoteStore struct {
	mu    sync.Mutex
	votes map[primitive.ObjectID]models.Vote
	keys  map[voteKey]primitive.ObjectID
}

func NewVoteStore() *VoteStore {
	return &VoteStore{
		votes: make(map[primitive.ObjectID]models.Vote),
		keys:  make(map[voteKey]primitive.ObjectID),
	}
}

func (s *VoteStore) Insert(_ context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey{vote.DebateID, vote.VoterIPHash}
	if _, dup := s.keys[key]; dup {
		return db.ErrDuplicateKey
	}
	assignID(&vote.ID)
	s.votes[vote.ID] = *vote
	s.keys[key] = vote.ID
	return nil
}

func (s *VoteStore) Exists(_ context.Context, debateID primitive.ObjectID, voterIPHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[voteKey{debateID, voterIPHash}]
	return ok, nil
}

func (s *VoteStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.votes[id]; ok {
		delete(s.keys, voteKey{v.DebateID, v.VoterIPHash})
		delete(s.votes, id)
	}
	return nil
}

// Count returns the number of stored votes.
func (s *VoteStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votes)
}

// SurveyStore keeps surveys
type SurveyStore struct {
	mu      sync.Mutex
	surveys map[primitive.ObjectID]models.Survey
}

func NewSurveyStore() *SurveyStore {
	return &SurveyStore{surveys: make(map[primitive.ObjectID]models.Survey)}
}

func (s *SurveyStore) Create(_ context.Context, survey *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&survey.ID)
	s.surveys[survey.ID] = *survey
	return nil
}

func (s *SurveyStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.surveys[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &v, nil
}

func (s *SurveyStore) List(_ context.Context, status string, page db.Page) ([]models.Survey, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Survey
	for _, v := range s.surveys {
		if v.IsDeleted || (status != "" && v.Status != status) {
			continue
		}
		out = append(out, v)
	}
	newestFirst(out, func(v models.Survey) time.Time { return v.CreatedAt })
	return paginate(out, page), int64(len(out)), nil
}

func (s *SurveyStore) SetAuthorToken(_ context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error {
	return s.mutate(id, false, func(v *models.Survey) {
		v.AuthorToken = token
		v.AuthorTokenExpiresAt = &expiresAt
	})
}

func (s *SurveyStore) SetStatus(_ context.Context, id primitive.ObjectID, status string) error {
	return s.mutate(id, true, func(v *models.Survey) { v.Status = status })
}

func (s *SurveyStore) IncrementResponses(_ context.Context, id primitive.ObjectID) error {
	return s.mutate(id, false, func(v *models.Survey) { v.ResponseCount++ })
}

func (s *SurveyStore) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	return s.mutate(id, true, func(v *models.Survey) { v.IsDeleted = true })
}

func (s *SurveyStore) mutate(id primitive.ObjectID, liveOnly bool, fn func(*models.Survey)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.surveys[id]
	if !ok || (liveOnly && v.IsDeleted) {
		return db.ErrNotFound
	}
	fn(&v)
	s.surveys[id] = v
	return nil
}

// ResponseStore keeps survey responses; duplicates are allowed
type ResponseStore struct {
	mu        sync.Mutex
	responses []models.SurveyResponse
}

func NewResponseStore() *ResponseStore { return &ResponseStore{} }

func (s *ResponseStore) Insert(_ context.Context, resp *models.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignID(&resp.ID)
	s.responses = append(s.responses, *resp)
	return nil
}

func (s *ResponseStore) Exists(_ context.Context, surveyID primitive.ObjectID, respondentIPHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.responses {
		if r.SurveyID == surveyID && r.RespondentIPHash == respondentIPHash {
			return true, nil
		}
	}
	return false, nil
}

func (s *ResponseStore) ListBySurvey(_ context.Context, surveyID primitive.ObjectID) ([]models.SurveyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SurveyResponse{}
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	newestFirst(out, func(r models.SurveyResponse) time.Time { return r.CreatedAt })
	return out, nil
}
