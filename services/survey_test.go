package services

import (
	"context"
	"testing"
	"time"

	"pollhub/models"
	"pollhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newSurveys(t *testing.T) *SurveyService {
	t.Helper()
	svc := NewSurveyService(testutil.NewSurveyStore(), testutil.NewResponseStore(), testutil.NewTokenService(t))
	return svc
}

func sampleSurvey(t *testing.T, svc *SurveyService) *models.Survey {
	t.Helper()
	s, err := svc.Create(context.Background(), CreateSurveyInput{
		Title:    "Team offsite",
		Password: "secret1",
		Questions: []SurveyQuestionInput{
			{Type: models.QuestionSingleChoice, Prompt: "Where?", Required: true, Options: []string{"Beach", "Mountains"}},
			{Type: models.QuestionMultipleChoice, Prompt: "Activities", Options: []string{"Hike", "Swim", "Eat"}},
			{Type: models.QuestionShortText, Prompt: "Comments", MaxLength: 10},
			{Type: models.QuestionRating, Prompt: "Excitement", Required: true},
		},
	})
	require.NoError(t, err)
	return s
}

func TestSurveyCreate_Validation(t *testing.T) {
	svc := newSurveys(t)
	ctx := context.Background()

	tests := []struct {
		name string
		q    SurveyQuestionInput
	}{
		{"unknown type", SurveyQuestionInput{Type: "essay", Prompt: "x"}},
		{"choice without options", SurveyQuestionInput{Type: models.QuestionSingleChoice, Prompt: "x", Options: []string{"only"}}},
		{"duplicate options", SurveyQuestionInput{Type: models.QuestionMultipleChoice, Prompt: "x", Options: []string{"a", "a"}}},
		{"text too long", SurveyQuestionInput{Type: models.QuestionShortText, Prompt: "x", MaxLength: 5000}},
		{"bad rating range", SurveyQuestionInput{Type: models.QuestionRating, Prompt: "x", MinRating: 5, MaxRating: 3}},
		{"missing prompt", SurveyQuestionInput{Type: models.QuestionLongText}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, CreateSurveyInput{Title: "t", Password: "secret1", Questions: []SurveyQuestionInput{tt.q}})
			assert.Equal(t, 400, StatusCode(err))
		})
	}

	_, err := svc.Create(ctx, CreateSurveyInput{Title: "t", Password: "secret1"})
	assert.Equal(t, 400, StatusCode(err))
}

func TestSurveyCreate_Defaults(t *testing.T) {
	svc := newSurveys(t)
	s := sampleSurvey(t, svc)

	assert.Equal(t, models.SurveyStatusOpen, s.Status)
	assert.Equal(t, 10, s.Questions[2].MaxLength)
	assert.Equal(t, DefaultMinRating, s.Questions[3].MinRating)
	assert.Equal(t, DefaultMaxRating, s.Questions[3].MaxRating)
	for i, q := range s.Questions {
		assert.Equal(t, i, q.Order)
		assert.NotEmpty(t, q.ID)
	}
}

func TestSurveySubmitResponse(t *testing.T) {
	svc := newSurveys(t)
	ctx := context.Background()
	s := sampleSurvey(t, svc)
	id := s.ID.Hex()
	q := s.Questions

	valid := []models.Answer{
		{QuestionID: q[0].ID, Value: "Beach"},
		{QuestionID: q[1].ID, Values: []string{"Hike", "Eat"}},
		{QuestionID: q[3].ID, Rating: intPtr(4)},
	}

	invalid := map[string][]models.Answer{
		"missing required": {{QuestionID: q[0].ID, Value: "Beach"}},
		"bad single choice": {
			{QuestionID: q[0].ID, Value: "Desert"}, {QuestionID: q[3].ID, Rating: intPtr(3)},
		},
		"bad multiple choice": {
			{QuestionID: q[0].ID, Value: "Beach"}, {QuestionID: q[1].ID, Values: []string{"Ski"}}, {QuestionID: q[3].ID, Rating: intPtr(3)},
		},
		"text too long": {
			{QuestionID: q[0].ID, Value: "Beach"}, {QuestionID: q[2].ID, Value: "far too long text"}, {QuestionID: q[3].ID, Rating: intPtr(3)},
		},
		"rating out of range": {
			{QuestionID: q[0].ID, Value: "Beach"}, {QuestionID: q[3].ID, Rating: intPtr(9)},
		},
		"unknown question": {
			{QuestionID: "nope", Value: "x"}, {QuestionID: q[0].ID, Value: "Beach"}, {QuestionID: q[3].ID, Rating: intPtr(3)},
		},
	}
	for name, answers := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SubmitResponse(ctx, id, answers, "R1")
			assert.Equal(t, 400, StatusCode(err))
		})
	}

	resp, err := svc.SubmitResponse(ctx, id, valid, "R1")
	require.NoError(t, err)
	assert.Len(t, resp.Answers, 3)

	_, err = svc.SubmitResponse(ctx, id, valid, "R1")
	assert.ErrorIs(t, err, ErrAlreadyResponded)

	responded, err := svc.HasResponded(ctx, id, "R1")
	require.NoError(t, err)
	assert.True(t, responded)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ResponseCount)
}

func TestSurveyAuthorSession(t *testing.T) {
	svc := newSurveys(t)
	ctx := context.Background()
	s := sampleSurvey(t, svc)
	id := s.ID.Hex()
	q := s.Questions

	_, err := svc.Verify(ctx, id, "wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = svc.Verify(ctx, id, "")
	assert.Equal(t, 400, StatusCode(err))

	_, err = svc.Results(ctx, id, "")
	assert.Equal(t, 401, StatusCode(err))

	session, err := svc.Verify(ctx, id, "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), session.ExpiresAt, time.Minute)

	for i, rating := range []int{2, 4} {
		_, err := svc.SubmitResponse(ctx, id, []models.Answer{
			{QuestionID: q[0].ID, Value: "Beach"},
			{QuestionID: q[2].ID, Value: "fun"},
			{QuestionID: q[3].ID, Rating: intPtr(rating)},
		}, string(rune('A'+i)))
		require.NoError(t, err)
	}

	results, err := svc.Results(ctx, id, session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), results.ResponseCount)
	assert.Equal(t, int64(2), results.Questions[0].Counts["Beach"])
	assert.Equal(t, int64(0), results.Questions[0].Counts["Mountains"])
	assert.Equal(t, []string{"fun", "fun"}, results.Questions[2].TextAnswers)
	require.NotNil(t, results.Questions[3].Average)
	assert.InDelta(t, 3.0, *results.Questions[3].Average, 0.001)

	other := sampleSurvey(t, svc)
	_, err = svc.Results(ctx, other.ID.Hex(), session.Token)
	assert.Equal(t, 403, StatusCode(err))

	require.NoError(t, svc.SetStatus(ctx, id, session.Token, models.SurveyStatusClosed))
	_, err = svc.SubmitResponse(ctx, id, nil, "Z")
	assert.ErrorIs(t, err, ErrSurveyClosed)
	assert.Equal(t, 400, StatusCode(svc.SetStatus(ctx, id, session.Token, "archived")))

	require.NoError(t, svc.Delete(ctx, id, session.Token))
	_, err = svc.Get(ctx, id)
	assert.Equal(t, 404, StatusCode(err))
}

func TestSurveyList_OnlyOpen(t *testing.T) {
	svc := newSurveys(t)
	ctx := context.Background()
	a := sampleSurvey(t, svc)
	sampleSurvey(t, svc)

	session, err := svc.Verify(ctx, a.ID.Hex(), "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.SetStatus(ctx, a.ID.Hex(), session.Token, models.SurveyStatusClosed))

	list, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}
