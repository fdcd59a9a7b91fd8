package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Debate status values, derived from the scheduling window.
const (
	DebateStatusScheduled = "scheduled"
	DebateStatusActive    = "active"
	DebateStatusEnded     = "ended"
)

// Debate defines a single anonymous poll
type Debate struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Category       string             `bson:"category" json:"category"`
	Tags           []string           `bson:"tags" json:"tags"`
	AuthorNickname string             `bson:"author_nickname" json:"author_nickname"`
	AdminPassword  string             `bson:"admin_password" json:"-"`
	Options        []VoteOption       `bson:"options" json:"options"`
	Settings       DebateSettings     `bson:"settings" json:"settings"`
	StartAt        time.Time          `bson:"start_at" json:"start_at"`
	EndAt          *time.Time         `bson:"end_at,omitempty" json:"end_at,omitempty"`
	Votes          []VoteEntry        `bson:"votes" json:"-"`
	Opinions       []Opinion          `bson:"opinions" json:"-"`
	Stats          DebateStats        `bson:"stats" json:"stats"`
	IsDeleted      bool               `bson:"is_deleted" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// VoteOption is one selectable answer of a debate
type VoteOption struct {
	ID        string `bson:"id" json:"id"`
	Label     string `bson:"label" json:"label"`
	Order     int    `bson:"order" json:"order"`
	VoteCount int64  `bson:"vote_count" json:"vote_count"`
}

// DebateSettings controls how a debate accepts votes and opinions
type DebateSettings struct {
	AllowMultipleChoice  bool `bson:"allow_multiple_choice" json:"allow_multiple_choice"`
	ShowResultsBeforeEnd bool `bson:"show_results_before_end" json:"show_results_before_end"`
	AllowAnonymous       bool `bson:"allow_anonymous" json:"allow_anonymous"`
	AllowOpinion         bool `bson:"allow_opinion" json:"allow_opinion"`
	MaxVotesPerIP        *int `bson:"max_votes_per_ip,omitempty" json:"max_votes_per_ip,omitempty"`
}

// DebateStats holds the aggregate counters of a debate
type DebateStats struct {
	TotalVotes   int64 `bson:"total_votes" json:"total_votes"`
	UniqueVoters int64 `bson:"unique_voters" json:"unique_voters"`
	OpinionCount int64 `bson:"opinion_count" json:"opinion_count"`
	ViewCount    int64 `bson:"view_count" json:"view_count"`
}

// VoteEntry is the copy of a vote embedded in its debate
type VoteEntry struct {
	VoterIPHash string    `bson:"voter_ip_hash" json:"-"`
	OptionIDs   []string  `bson:"option_ids" json:"option_ids"`
	VotedAt     time.Time `bson:"voted_at" json:"voted_at"`
}

// Opinion is a free-text entry attached to a debate
type Opinion struct {
	ID               string    `bson:"id" json:"id"`
	AuthorNickname   string    `bson:"author_nickname" json:"author_nickname"`
	SelectedOptionID string    `bson:"selected_option_id,omitempty" json:"selected_option_id,omitempty"`
	Content          string    `bson:"content" json:"content"`
	IsAnonymous      bool      `bson:"is_anonymous" json:"is_anonymous"`
	VoterIPHash      string    `bson:"voter_ip_hash" json:"-"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}

// StatusAt derives the debate status from its scheduling window
func (d *Debate) StatusAt(now time.Time) string {
	if now.Before(d.StartAt) {
		return DebateStatusScheduled
	}
	if d.EndAt != nil && !now.Before(*d.EndAt) {
		return DebateStatusEnded
	}
	return DebateStatusActive
}

// FindOption returns the option with the given id, or nil
func (d *Debate) FindOption(id string) *VoteOption {
	for i := range d.Options {
		if d.Options[i].ID == id {
			return &d.Options[i]
		}
	}
	return nil
}
