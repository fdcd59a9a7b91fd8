package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Survey status values
const (
	SurveyStatusOpen   = "open"
	SurveyStatusClosed = "closed"
)

// Survey question types
const (
	QuestionSingleChoice   = "single_choice"
	QuestionMultipleChoice = "multiple_choice"
	QuestionShortText      = "short_text"
	QuestionLongText       = "long_text"
	QuestionRating         = "rating"
)

// Survey is an ordered questionnaire managed through an author session
type Survey struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title                string             `bson:"title" json:"title"`
	Description          string             `bson:"description" json:"description"`
	Tags                 []string           `bson:"tags" json:"tags"`
	AuthorNickname       string             `bson:"author_nickname" json:"author_nickname"`
	Questions            []SurveyQuestion   `bson:"questions" json:"questions"`
	Status               string             `bson:"status" json:"status"`
	Password             string             `bson:"password" json:"-"`
	AuthorToken          string             `bson:"author_token,omitempty" json:"-"`
	AuthorTokenExpiresAt *time.Time         `bson:"author_token_expires_at,omitempty" json:"-"`
	ResponseCount        int64              `bson:"response_count" json:"response_count"`
	IsDeleted            bool               `bson:"is_deleted" json:"-"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`
}

// SurveyQuestion is one prompt of a survey. Which of the optional fields
// apply depends on Type.
type SurveyQuestion struct {
	ID        string   `bson:"id" json:"id"`
	Type      string   `bson:"type" json:"type"`
	Prompt    string   `bson:"prompt" json:"prompt"`
	Required  bool     `bson:"required" json:"required"`
	Options   []string `bson:"options,omitempty" json:"options,omitempty"`
	MaxLength int      `bson:"max_length,omitempty" json:"max_length,omitempty"`
	MinRating int      `bson:"min_rating,omitempty" json:"min_rating,omitempty"`
	MaxRating int      `bson:"max_rating,omitempty" json:"max_rating,omitempty"`
	Order     int      `bson:"order" json:"order"`
}

// SurveyResponse is one respondent's submission
type SurveyResponse struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SurveyID         primitive.ObjectID `bson:"survey_id" json:"survey_id"`
	RespondentIPHash string             `bson:"respondent_ip_hash" json:"-"`
	Answers          []Answer           `bson:"answers" json:"answers"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// Answer holds the value given to a single survey question
type Answer struct {
	QuestionID string   `bson:"question_id" json:"question_id"`
	Value      string   `bson:"value,omitempty" json:"value,omitempty"`
	Values     []string `bson:"values,omitempty" json:"values,omitempty"`
	Rating     *int     `bson:"rating,omitempty" json:"rating,omitempty"`
}

// FindQuestion returns the survey question with the given id, or nil
func (s *Survey) FindQuestion(id string) *SurveyQuestion {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}
