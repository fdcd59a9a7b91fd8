package services

import (
	"context"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"pollhub/models"
	"pollhub/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Survey question defaults
const (
	DefaultShortTextLength = 200
	DefaultLongTextLength  = 2000
	MaxLongTextLength      = 5000
	DefaultMinRating       = 1
	DefaultMaxRating       = 5
	MaxRatingScale         = 10
)

// SurveyQuestionInput describes one question of a new survey
type SurveyQuestionInput struct {
	Type      string
	Prompt    string
	Required  bool
	Options   []string
	MaxLength int
	MinRating int
	MaxRating int
}

// CreateSurveyInput describes a new survey
type CreateSurveyInput struct {
	Title          string
	Description    string
	Tags           []string
	AuthorNickname string
	Password       string
	Questions      []SurveyQuestionInput
}

// SurveyList is one page of surveys
type SurveyList struct {
	Surveys []models.Survey `json:"surveys"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
}

// AuthorSession is the result of a successful survey password check
type AuthorSession struct {
	Token     string    `json:"admin_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// QuestionResult aggregates the answers given to one survey question
type QuestionResult struct {
	QuestionID  string           `json:"question_id"`
	Type        string           `json:"type"`
	Prompt      string           `json:"prompt"`
	Answered    int64            `json:"answered"`
	Counts      map[string]int64 `json:"counts,omitempty"`
	Average     *float64         `json:"average,omitempty"`
	TextAnswers []string         `json:"text_answers,omitempty"`
}

// SurveyResults is the author-only aggregate view of a survey
type SurveyResults struct {
	SurveyID      string           `json:"survey_id"`
	ResponseCount int64            `json:"response_count"`
	Questions     []QuestionResult `json:"questions"`
}

type SurveyService struct {
	surveys   SurveyStore
	responses ResponseStore
	tokens    *utils.TokenService
	now       func() time.Time
}

func NewSurveyService(surveys SurveyStore, responses ResponseStore, tokens *utils.TokenService) *SurveyService {
	return &SurveyService{surveys: surveys, responses: responses, tokens: tokens, now: time.Now}
}

func (s *SurveyService) Create(ctx context.Context, in CreateSurveyInput) (*models.Survey, error) {
	title, err := requireText("title", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	if err := requirePassword(in.Password); err != nil {
		return nil, err
	}
	if len(in.Questions) == 0 {
		return nil, ValidationError("at least one question is required")
	}
	questions := make([]models.SurveyQuestion, 0, len(in.Questions))
	for i, q := range in.Questions {
		built, err := buildSurveyQuestion(i, q)
		if err != nil {
			return nil, err
		}
		questions = append(questions, built)
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
	survey := &models.Survey{
		Title:          title,
		Description:    trimmed(in.Description),
		Tags:           cleanTags(in.Tags),
		AuthorNickname: nicknameOrAnonymous(nickname, false),
		Questions:      questions,
		Status:         models.SurveyStatusOpen,
		Password:       hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.surveys.Create(ctx, survey); err != nil {
		return nil, InternalError("failed to create survey", err)
	}
	log.Info().Str("survey_id", survey.ID.Hex()).Int("questions", len(questions)).Msg("survey created")
	return survey, nil
}

// List returns open surveys, newest first.
func (s *SurveyService) List(ctx context.Context, page, limit int) (*SurveyList, error) {
	p := normalizePage(page, limit, 20)
	items, total, err := s.surveys.List(ctx, models.SurveyStatusOpen, p)
	if err != nil {
		return nil, InternalError("failed to list surveys", err)
	}
	return &SurveyList{Surveys: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func (s *SurveyService) Get(ctx context.Context, surveyID string) (*models.Survey, error) {
	return s.load(ctx, surveyID)
}

// Verify checks the survey password and opens a new author session. The
// token replaces any previous one stored on the survey.
func (s *SurveyService) Verify(ctx context.Context, surveyID, password string) (*AuthorSession, error) {
	if password == "" {
		return nil, ValidationError("password is required")
	}
	survey, err := s.load(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, survey.Password) {
		return nil, ErrInvalidPassword
	}
	token, expiresAt, err := s.tokens.IssueSurveyAuthor(survey.ID.Hex())
	if err != nil {
		return nil, InternalError("failed to issue token", err)
	}
	if err := s.surveys.SetAuthorToken(ctx, survey.ID, token, expiresAt); err != nil {
		return nil, storeErr("survey", err)
	}
	return &AuthorSession{Token: token, ExpiresAt: expiresAt}, nil
}

// authorize loads the survey and checks token is its current author session.
func (s *SurveyService) authorize(ctx context.Context, surveyID, token string) (*models.Survey, error) {
	if token == "" {
		return nil, AuthenticationError("author session required")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil || claims.Type != utils.TokenTypeSurveyAuthor {
		return nil, AuthenticationError("invalid or expired author session")
	}
	survey, err := s.load(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if claims.SurveyID != survey.ID.Hex() {
		return nil, AuthorizationError("author session belongs to another survey")
	}
	if !utils.SecureCompare(token, survey.AuthorToken) ||
		survey.AuthorTokenExpiresAt == nil || !s.now().Before(*survey.AuthorTokenExpiresAt) {
		return nil, AuthenticationError("invalid or expired author session")
	}
	return survey, nil
}

// SubmitResponse validates answers against the survey and stores them.
func (s *SurveyService) SubmitResponse(ctx context.Context, surveyID string, answers []models.Answer, fingerprint string) (*models.SurveyResponse, error) {
	survey, err := s.load(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Status != models.SurveyStatusOpen {
		return nil, ErrSurveyClosed
	}
	clean, err := validateAnswers(survey, answers)
	if err != nil {
		return nil, err
	}
	responded, err := s.responses.Exists(ctx, survey.ID, fingerprint)
	if err != nil {
		return nil, InternalError("failed to check response", err)
	}
	if responded {
		return nil, ErrAlreadyResponded
	}

	resp := &models.SurveyResponse{
		SurveyID:         survey.ID,
		RespondentIPHash: fingerprint,
		Answers:          clean,
		CreatedAt:        s.now(),
	}
	if err := s.responses.Insert(ctx, resp); err != nil {
		return nil, InternalError("failed to store response", err)
	}
	if err := s.surveys.IncrementResponses(ctx, survey.ID); err != nil {
		log.Warn().Err(err).Str("survey_id", surveyID).Msg("failed to bump response count")
	}
	return resp, nil
}

func (s *SurveyService) HasResponded(ctx context.Context, surveyID, fingerprint string) (bool, error) {
	survey, err := s.load(ctx, surveyID)
	if err != nil {
		return false, err
	}
	ok, err := s.responses.Exists(ctx, survey.ID, fingerprint)
	if err != nil {
		return false, InternalError("failed to check response", err)
	}
	return ok, nil
}

// Results aggregates all responses for the survey author.
func (s *SurveyService) Results(ctx context.Context, surveyID, token string) (*SurveyResults, error) {
	survey, err := s.authorize(ctx, surveyID, token)
	if err != nil {
		return nil, err
	}
	responses, err := s.responses.ListBySurvey(ctx, survey.ID)
	if err != nil {
		return nil, InternalError("failed to load responses", err)
	}
	return aggregateSurvey(survey, responses), nil
}

func (s *SurveyService) SetStatus(ctx context.Context, surveyID, token, status string) error {
	if status != models.SurveyStatusOpen && status != models.SurveyStatusClosed {
		return ValidationError("status must be open or closed")
	}
	survey, err := s.authorize(ctx, surveyID, token)
	if err != nil {
		return err
	}
	if err := s.surveys.SetStatus(ctx, survey.ID, status); err != nil {
		return storeErr("survey", err)
	}
	return nil
}

func (s *SurveyService) Delete(ctx context.Context, surveyID, token string) error {
	survey, err := s.authorize(ctx, surveyID, token)
	if err != nil {
		return err
	}
	if err := s.surveys.SoftDelete(ctx, survey.ID); err != nil {
		return storeErr("survey", err)
	}
	return nil
}

func (s *SurveyService) load(ctx context.Context, surveyID string) (*models.Survey, error) {
	id, err := parseID("survey", surveyID)
	if err != nil {
		return nil, err
	}
	survey, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("survey", err)
	}
	if survey.IsDeleted {
		return nil, NotFoundError("survey not found")
	}
	return survey, nil
}

func buildSurveyQuestion(order int, in SurveyQuestionInput) (models.SurveyQuestion, error) {
	field := fmt.Sprintf("question %d", order+1)
	prompt, err := requireText(field+" prompt", in.Prompt, MaxTitleLength*5)
	if err != nil {
		return models.SurveyQuestion{}, err
	}
	q := models.SurveyQuestion{
		ID:       uuid.NewString(),
		Type:     in.Type,
		Prompt:   prompt,
		Required: in.Required,
		Order:    order,
	}

	switch in.Type {
	case models.QuestionSingleChoice, models.QuestionMultipleChoice:
		if len(in.Options) < 2 {
			return q, ValidationError(field + " needs at least two options")
		}
		seen := make(map[string]struct{}, len(in.Options))
		for _, opt := range in.Options {
			opt = trimmed(opt)
			if opt == "" {
				return q, ValidationError(field + " has an empty option")
			}
			if _, dup := seen[opt]; dup {
				return q, ValidationError(field + " options must be unique")
			}
			seen[opt] = struct{}{}
			q.Options = append(q.Options, opt)
		}
	case models.QuestionShortText, models.QuestionLongText:
		limit := DefaultShortTextLength
		ceiling := DefaultShortTextLength
		if in.Type == models.QuestionLongText {
			limit, ceiling = DefaultLongTextLength, MaxLongTextLength
		}
		if in.MaxLength != 0 {
			limit = in.MaxLength
		}
		if limit < 1 || limit > ceiling {
			return q, ValidationError(fmt.Sprintf("%s max_length must be between 1 and %d", field, ceiling))
		}
		q.MaxLength = limit
	case models.QuestionRating:
		q.MinRating, q.MaxRating = DefaultMinRating, DefaultMaxRating
		if in.MinRating != 0 || in.MaxRating != 0 {
			q.MinRating, q.MaxRating = in.MinRating, in.MaxRating
		}
		if q.MinRating < 0 || q.MaxRating > MaxRatingScale || q.MinRating >= q.MaxRating {
			return q, ValidationError(fmt.Sprintf("%s rating range must satisfy 0 <= min < max <= %d", field, MaxRatingScale))
		}
	default:
		return q, ValidationError(field + " has unknown type: " + in.Type)
	}
	return q, nil
}

// validateAnswers checks each answer against its question and drops blank
// optional answers.
func validateAnswers(survey *models.Survey, answers []models.Answer) ([]models.Answer, error) {
	byQuestion := make(map[string]models.Answer, len(answers))
	for _, a := range answers {
		q := survey.FindQuestion(a.QuestionID)
		if q == nil {
			return nil, ValidationError("unknown question: " + a.QuestionID)
		}
		if _, dup := byQuestion[a.QuestionID]; dup {
			return nil, ValidationError("question answered more than once: " + a.QuestionID)
		}
		byQuestion[a.QuestionID] = a
	}

	clean := make([]models.Answer, 0, len(answers))
	for i := range survey.Questions {
		q := &survey.Questions[i]
		a, ok := byQuestion[q.ID]
		if !ok || answerIsBlank(q, a) {
			if q.Required {
				return nil, ValidationError("answer required for: " + q.Prompt)
			}
			continue
		}
		normalized, err := checkAnswer(q, a)
		if err != nil {
			return nil, err
		}
		clean = append(clean, normalized)
	}
	return clean, nil
}

func answerIsBlank(q *models.SurveyQuestion, a models.Answer) bool {
	switch q.Type {
	case models.QuestionMultipleChoice:
		return len(a.Values) == 0
	case models.QuestionRating:
		return a.Rating == nil
	default:
		return trimmed(a.Value) == ""
	}
}

func checkAnswer(q *models.SurveyQuestion, a models.Answer) (models.Answer, error) {
	out := models.Answer{QuestionID: q.ID}
	switch q.Type {
	case models.QuestionSingleChoice:
		v := trimmed(a.Value)
		if !slices.Contains(q.Options, v) {
			return out, ValidationError("invalid choice for: " + q.Prompt)
		}
		out.Value = v
	case models.QuestionMultipleChoice:
		seen := make(map[string]struct{}, len(a.Values))
		for _, v := range a.Values {
			v = trimmed(v)
			if !slices.Contains(q.Options, v) {
				return out, ValidationError("invalid choice for: " + q.Prompt)
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out.Values = append(out.Values, v)
		}
	case models.QuestionShortText, models.QuestionLongText:
		v := trimmed(a.Value)
		if utf8.RuneCountInString(v) > q.MaxLength {
			return out, ValidationError(fmt.Sprintf("answer to %q must be at most %d characters", q.Prompt, q.MaxLength))
		}
		out.Value = v
	case models.QuestionRating:
		r := *a.Rating
		if r < q.MinRating || r > q.MaxRating {
			return out, ValidationError(fmt.Sprintf("rating for %q must be between %d and %d", q.Prompt, q.MinRating, q.MaxRating))
		}
		out.Rating = &r
	}
	return out, nil
}

func aggregateSurvey(survey *models.Survey, responses []models.SurveyResponse) *SurveyResults {
	results := &SurveyResults{
		SurveyID:      survey.ID.Hex(),
		ResponseCount: int64(len(responses)),
		Questions:     make([]QuestionResult, 0, len(survey.Questions)),
	}
	index := make(map[string]int, len(survey.Questions))
	sums := make(map[string]int, len(survey.Questions))
	for i, q := range survey.Questions {
		qr := QuestionResult{QuestionID: q.ID, Type: q.Type, Prompt: q.Prompt}
		if q.Type == models.QuestionSingleChoice || q.Type == models.QuestionMultipleChoice {
			qr.Counts = make(map[string]int64, len(q.Options))
			for _, opt := range q.Options {
				qr.Counts[opt] = 0
			}
		}
		if q.Type == models.QuestionShortText || q.Type == models.QuestionLongText {
			qr.TextAnswers = []string{}
		}
		index[q.ID] = i
		results.Questions = append(results.Questions, qr)
	}

	for _, resp := range responses {
		for _, a := range resp.Answers {
			i, ok := index[a.QuestionID]
			if !ok {
				continue
			}
			qr := &results.Questions[i]
			qr.Answered++
			switch qr.Type {
			case models.QuestionSingleChoice:
				qr.Counts[a.Value]++
			case models.QuestionMultipleChoice:
				for _, v := range a.Values {
					qr.Counts[v]++
				}
			case models.QuestionShortText, models.QuestionLongText:
				qr.TextAnswers = append(qr.TextAnswers, a.Value)
			case models.QuestionRating:
				if a.Rating != nil {
					sums[a.QuestionID] += *a.Rating
				}
			}
		}
	}

	for i := range results.Questions {
		qr := &results.Questions[i]
		if qr.Type == models.QuestionRating && qr.Answered > 0 {
			avg := float64(sums[qr.QuestionID]) / float64(qr.Answered)
			qr.Average = &avg
		}
	}
	return results
}
