package controllers

import (
	"net/http"

	"pollhub/middlewares"
	"pollhub/models"
	"pollhub/services"
	"pollhub/utils"

	"github.com/gin-gonic/gin"
)

// SurveyController serves surveys and their author sessions
type SurveyController struct {
	Surveys      *services.SurveyService
	Salt         string
	CookieSecure bool
}

type surveyQuestionRequest struct {
	Type      string   `json:"type"`
	Prompt    string   `json:"prompt"`
	Required  bool     `json:"required"`
	Options   []string `json:"options"`
	MaxLength int      `json:"max_length"`
	MinRating int      `json:"min_rating"`
	MaxRating int      `json:"max_rating"`
}

type createSurveyRequest struct {
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	Tags           []string                `json:"tags"`
	AuthorNickname string                  `json:"author_nickname"`
	Password       string                  `json:"password"`
	Questions      []surveyQuestionRequest `json:"questions"`
}

type submitResponseRequest struct {
	Answers []models.Answer `json:"answers"`
}

type surveyStatusRequest struct {
	Status string `json:"status"`
}

// SurveyAuthorCookie names the cookie holding the author session of a survey.
func SurveyAuthorCookie(surveyID string) string {
	return "survey_author_" + surveyID
}

// authorToken reads the survey author session from its cookie, then from
// an Authorization: Bearer header.
func authorToken(c *gin.Context, surveyID string) string {
	if cookie, err := c.Cookie(SurveyAuthorCookie(surveyID)); err == nil && cookie != "" {
		return cookie
	}
	return middlewares.BearerToken(c)
}

// ListSurveys handles GET /api/surveys
func (sc *SurveyController) ListSurveys(c *gin.Context) {
	page, limit := pageParams(c)
	list, err := sc.Surveys.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateSurvey handles POST /api/surveys
func (sc *SurveyController) CreateSurvey(c *gin.Context) {
	var req createSurveyRequest
	if !bindJSON(c, &req) {
		return
	}
	questions := make([]services.SurveyQuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, services.SurveyQuestionInput{
			Type:      q.Type,
			Prompt:    q.Prompt,
			Required:  q.Required,
			Options:   q.Options,
			MaxLength: q.MaxLength,
			MinRating: q.MinRating,
			MaxRating: q.MaxRating,
		})
	}
	survey, err := sc.Surveys.Create(c.Request.Context(), services.CreateSurveyInput{
		Title:          req.Title,
		Description:    req.Description,
		Tags:           req.Tags,
		AuthorNickname: req.AuthorNickname,
		Password:       req.Password,
		Questions:      questions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Survey created", "survey": survey})
}

// GetSurvey handles GET /api/surveys/:id
func (sc *SurveyController) GetSurvey(c *gin.Context) {
	survey, err := sc.Surveys.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

// Verify handles POST /api/surveys/:id/verify and opens an author session.
func (sc *SurveyController) Verify(c *gin.Context) {
	var req passwordRequest
	if !bindJSON(c, &req) {
		return
	}
	surveyID := c.Param("id")
	session, err := sc.Surveys.Verify(c.Request.Context(), surveyID, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	setCookie(c, SurveyAuthorCookie(surveyID), session.Token, utils.SurveyAuthorTokenTTL, sc.CookieSecure)
	c.JSON(http.StatusOK, session)
}

// SubmitResponse handles POST /api/surveys/:id/responses
func (sc *SurveyController) SubmitResponse(c *gin.Context) {
	var req submitResponseRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := sc.Surveys.SubmitResponse(c.Request.Context(), c.Param("id"), req.Answers, fingerprint(c, sc.Salt))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Response recorded", "response_id": resp.ID.Hex()})
}

// HasResponded handles GET /api/surveys/:id/has-responded
func (sc *SurveyController) HasResponded(c *gin.Context) {
	ok, err := sc.Surveys.HasResponded(c.Request.Context(), c.Param("id"), fingerprint(c, sc.Salt))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_responded": ok})
}

// Results handles GET /api/surveys/:id/results for the author.
func (sc *SurveyController) Results(c *gin.Context) {
	surveyID := c.Param("id")
	results, err := sc.Surveys.Results(c.Request.Context(), surveyID, authorToken(c, surveyID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// SetStatus handles PUT /api/surveys/:id/status for the author.
func (sc *SurveyController) SetStatus(c *gin.Context) {
	var req surveyStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	surveyID := c.Param("id")
	if err := sc.Surveys.SetStatus(c.Request.Context(), surveyID, authorToken(c, surveyID), req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Survey status updated", "status": req.Status})
}

// DeleteSurvey handles DELETE /api/surveys/:id for the author and clears
// the author session.
func (sc *SurveyController) DeleteSurvey(c *gin.Context) {
	surveyID := c.Param("id")
	if err := sc.Surveys.Delete(c.Request.Context(), surveyID, authorToken(c, surveyID)); err != nil {
		respondError(c, err)
		return
	}
	setCookie(c, SurveyAuthorCookie(surveyID), "", 0, sc.CookieSecure)
	c.JSON(http.StatusOK, gin.H{"message": "Survey deleted"})
}
