package controllers

import (
	"errors"
	"net/http"
	"time"

	"pollhub/internal/live"
	"pollhub/middlewares"
	"pollhub/models"
	"pollhub/services"

	"github.com/gin-gonic/gin"
)

// DebateController serves debates, votes, opinions and the live feed
type DebateController struct {
	Debates  *services.DebateService
	Voting   *services.VotingService
	Opinions *services.OpinionService
	Hub      *live.Hub
	Metrics  *middlewares.Metrics
	Salt     string
}

type settingsRequest struct {
	AllowMultipleChoice  bool `json:"allow_multiple_choice"`
	ShowResultsBeforeEnd bool `json:"show_results_before_end"`
	AllowAnonymous       bool `json:"allow_anonymous"`
	AllowOpinion         bool `json:"allow_opinion"`
	MaxVotesPerIP        *int `json:"max_votes_per_ip"`
}

func (s *settingsRequest) model() models.DebateSettings {
	return models.DebateSettings{
		AllowMultipleChoice:  s.AllowMultipleChoice,
		ShowResultsBeforeEnd: s.ShowResultsBeforeEnd,
		AllowAnonymous:       s.AllowAnonymous,
		AllowOpinion:         s.AllowOpinion,
		MaxVotesPerIP:        s.MaxVotesPerIP,
	}
}

type createDebateRequest struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Tags           []string        `json:"tags"`
	AuthorNickname string          `json:"author_nickname"`
	AdminPassword  string          `json:"admin_password"`
	Options        []string        `json:"options"`
	Settings       settingsRequest `json:"settings"`
	StartAt        *time.Time      `json:"start_at"`
	EndAt          *time.Time      `json:"end_at"`
}

type updateDebateRequest struct {
	Password    string           `json:"password"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Tags        []string         `json:"tags"`
	EndAt       *time.Time       `json:"end_at"`
	ClearEndAt  bool             `json:"clear_end_at"`
	Settings    *settingsRequest `json:"settings"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type voteRequest struct {
	OptionIDs []string `json:"option_ids"`
	VoterName string   `json:"voter_name"`
}

type opinionRequest struct {
	AuthorNickname   string `json:"author_nickname"`
	SelectedOptionID string `json:"selected_option_id"`
	Content          string `json:"content"`
	IsAnonymous      bool   `json:"is_anonymous"`
}

// ListDebates handles GET /api/debates
func (dc *DebateController) ListDebates(c *gin.Context) {
	page, limit := pageParams(c)
	list, err := dc.Debates.List(c.Request.Context(), services.ListDebatesInput{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateDebate handles POST /api/debates
func (dc *DebateController) CreateDebate(c *gin.Context) {
	var req createDebateRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := dc.Debates.Create(c.Request.Context(), services.CreateDebateInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Tags:           req.Tags,
		AuthorNickname: req.AuthorNickname,
		AdminPassword:  req.AdminPassword,
		Options:        req.Options,
		Settings:       req.Settings.model(),
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Debate created", "debate": view})
}

// GetDebate handles GET /api/debates/:id
func (dc *DebateController) GetDebate(c *gin.Context) {
	view, err := dc.Debates.Get(c.Request.Context(), c.Param("id"), fingerprint(c, dc.Salt))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateDebate handles PUT /api/debates/:id
func (dc *DebateController) UpdateDebate(c *gin.Context) {
	var req updateDebateRequest
	if !bindJSON(c, &req) {
		return
	}
	in := services.UpdateDebateInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		EndAt:       req.EndAt,
		ClearEndAt:  req.ClearEndAt,
	}
	if req.Settings != nil {
		settings := req.Settings.model()
		in.Settings = &settings
	}
	view, err := dc.Debates.Update(c.Request.Context(), c.Param("id"), req.Password, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteDebate handles DELETE /api/debates/:id with the author password
// and DELETE /api/admin/debates/:id for admins.
func (dc *DebateController) DeleteDebate(c *gin.Context) {
	var req passwordRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if err := dc.Debates.Delete(c.Request.Context(), c.Param("id"), req.Password, isAdmin(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Debate deleted"})
}

// Vote handles POST /api/debates/:id/vote
func (dc *DebateController) Vote(c *gin.Context) {
	var req voteRequest
	if !bindJSON(c, &req) {
		dc.Metrics.ObserveVote("rejected")
		return
	}
	results, err := dc.Voting.CastVote(c.Request.Context(), c.Param("id"), services.VoteInput{
		OptionIDs: req.OptionIDs,
		VoterName: req.VoterName,
	}, fingerprint(c, dc.Salt))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyVoted):
			dc.Metrics.ObserveVote("duplicate")
		default:
			dc.Metrics.ObserveVote("rejected")
		}
		respondError(c, err)
		return
	}
	dc.Metrics.ObserveVote("accepted")
	// results is nil while they are hidden; the client gets null.
	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded", "results": results})
}

// Results handles GET /api/debates/:id/results
func (dc *DebateController) Results(c *gin.Context) {
	results, err := dc.Voting.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Stats handles GET /api/debates/:id/stats
func (dc *DebateController) Stats(c *gin.Context) {
	stats, err := dc.Voting.Stats(c.Request.Context(), c.Param("id"), fingerprint(c, dc.Salt))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AddOpinion handles POST /api/debates/:id/opinion
func (dc *DebateController) AddOpinion(c *gin.Context) {
	var req opinionRequest
	if !bindJSON(c, &req) {
		return
	}
	_, err := dc.Opinions.AddOpinion(c.Request.Context(), c.Param("id"), services.OpinionInput{
		AuthorNickname:   req.AuthorNickname,
		SelectedOptionID: req.SelectedOptionID,
		Content:          req.Content,
		IsAnonymous:      req.IsAnonymous,
	}, fingerprint(c, dc.Salt))
	if err != nil {
		respondError(c, err)
		return
	}
	dc.Metrics.ObserveOpinion()
	c.JSON(http.StatusOK, gin.H{"message": "Opinion added"})
}

// ListOpinions handles GET /api/debates/:id/opinions
func (dc *DebateController) ListOpinions(c *gin.Context) {
	page, limit := pageParams(c)
	out, err := dc.Opinions.ListOpinions(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Live handles GET /api/debates/:id/live. The connection first receives
// the current tally, then every event published for the debate.
func (dc *DebateController) Live(c *gin.Context) {
	debateID := c.Param("id")
	eventType, payload, err := dc.Voting.Snapshot(c.Request.Context(), debateID)
	if err != nil {
		respondError(c, err)
		return
	}
	initial, err := live.NewEvent(debateID, eventType, payload)
	if err != nil {
		respondError(c, services.InternalError("failed to encode live event", err))
		return
	}
	if err := dc.Hub.ServeWS(c.Writer, c.Request, debateID, initial); err != nil {
		// The upgrader has already written the HTTP error.
		middlewares.Logger.Warn().Err(err).Str("debate_id", debateID).Msg("websocket upgrade failed")
	}
}
