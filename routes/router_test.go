package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pollhub/controllers"
	"pollhub/internal/live"
	"pollhub/internal/ratelimit"
	"pollhub/middlewares"
	"pollhub/services"
	"pollhub/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	superUser = "root"
	superPass = "toor-password"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router http.Handler
	hub    *live.Hub
}

func newTestAPI(t *testing.T, limiter ratelimit.Limiter) *testAPI {
	t.Helper()
	tokens := testutil.NewTokenService(t)
	hub := live.NewHub(nil, nil)

	debates := testutil.NewDebateStore()
	questions := testutil.NewQuestionStore()
	voting := services.NewVotingService(debates, testutil.NewVoteStore(), hub)
	debateSvc := services.NewDebateService(debates, voting)
	auth := services.NewAdminAuthService(testutil.NewAdminStore(), tokens, services.SuperAdminCredentials{Username: superUser, Password: superPass})
	errorLogs := services.NewErrorLogService(testutil.NewErrorLogStore())

	enforcer, err := middlewares.NewEnforcer(nil)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Debate: &controllers.DebateController{
			Debates:  debateSvc,
			Voting:   voting,
			Opinions: services.NewOpinionService(debates, hub),
			Hub:      hub,
			Salt:     testutil.TestSalt,
		},
		Survey: &controllers.SurveyController{
			Surveys: services.NewSurveyService(testutil.NewSurveyStore(), testutil.NewResponseStore(), tokens),
			Salt:    testutil.TestSalt,
		},
		Question: &controllers.QuestionController{
			Questions: services.NewQuestionService(questions),
			Comments:  services.NewCommentService(questions, testutil.NewCommentStore()),
			Salt:      testutil.TestSalt,
		},
		Board: &controllers.BoardController{
			Requests:  services.NewRequestService(testutil.NewRequestStore()),
			Guestbook: services.NewGuestbookService(testutil.NewGuestbookStore()),
		},
		Admin: &controllers.AdminController{
			Auth:      auth,
			ErrorLogs: errorLogs,
			Debates:   debateSvc,
		},
		Auth:     auth,
		Enforcer: enforcer,
		Limiter:  limiter,
		Metrics:  middlewares.NewMetrics(prometheus.NewRegistry()),
		ErrorLog: errorLogs,
		Health:   map[string]controllers.Pinger{},
		Salt:     testutil.TestSalt,
	})
	return &testAPI{router: router, hub: hub}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.MakeRequest(t, a.router, method, path, body, headers)
}

func fromIP(ip string) map[string]string {
	return map[string]string{"X-Forwarded-For": ip}
}

type debateResponse struct {
	Debate struct {
		ID      string `json:"id"`
		Options []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"options"`
	} `json:"debate"`
}

func (a *testAPI) createDebate(t *testing.T, showResults bool) debateResponse {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/debates", gin.H{
		"title":          "Pineapple on pizza?",
		"admin_password": "secret",
		"options":        []string{"Agree", "Disagree"},
		"settings":       gin.H{"show_results_before_end": showResults, "allow_opinion": true, "allow_anonymous": true},
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var out debateResponse
	testutil.DecodeJSON(t, rr, &out)
	require.Len(t, out.Debate.Options, 2)
	return out
}

type voteResponse struct {
	Message string            `json:"message"`
	Results *services.Results `json:"results"`
}

func TestVoteFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	d := api.createDebate(t, true)
	agree, disagree := d.Debate.Options[0].ID, d.Debate.Options[1].ID
	votePath := "/api/debates/" + d.Debate.ID + "/vote"

	rr := api.do(t, http.MethodPost, votePath, gin.H{"option_ids": []string{agree}}, fromIP("203.0.113.1"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var first voteResponse
	testutil.DecodeJSON(t, rr, &first)
	require.NotNil(t, first.Results)
	assert.Equal(t, int64(1), first.Results.TotalVotes)
	assert.Equal(t, 100, first.Results.Options[0].Percentage)

	rr = api.do(t, http.MethodPost, votePath, gin.H{"option_ids": []string{disagree}}, fromIP("203.0.113.1"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"you have already voted on this debate"}`, rr.Body.String())

	rr = api.do(t, http.MethodPost, votePath, gin.H{"option_ids": []string{disagree}}, fromIP("203.0.113.2"))
	require.Equal(t, http.StatusOK, rr.Code)
	var second voteResponse
	testutil.DecodeJSON(t, rr, &second)
	assert.Equal(t, 50, second.Results.Options[0].Percentage)
	assert.Equal(t, 50, second.Results.Options[1].Percentage)

	rr = api.do(t, http.MethodGet, "/api/debates/"+d.Debate.ID+"/stats", nil, fromIP("203.0.113.1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"agree_count":1,"disagree_count":1,"total_votes":2,"unique_voters":2,"has_voted":true}`, rr.Body.String())

	rr = api.do(t, http.MethodGet, "/api/debates/"+d.Debate.ID+"/stats", nil, fromIP("198.51.100.9"))
	assert.Contains(t, rr.Body.String(), `"has_voted":false`)
}

func TestVote_HiddenResultsReturnNull(t *testing.T) {
	api := newTestAPI(t, nil)
	d := api.createDebate(t, false)

	rr := api.do(t, http.MethodPost, "/api/debates/"+d.Debate.ID+"/vote", gin.H{"option_ids": []string{d.Debate.Options[0].ID}}, fromIP("203.0.113.1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Vote recorded","results":null}`, rr.Body.String())

	rr = api.do(t, http.MethodGet, "/api/debates/"+d.Debate.ID+"/results", nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/debates/"+d.Debate.ID+"/stats", nil, fromIP("203.0.113.1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"agree_count":0,"disagree_count":0,"total_votes":1,"unique_voters":1,"has_voted":true}`, rr.Body.String())
}

func TestVote_Failures(t *testing.T) {
	api := newTestAPI(t, nil)
	d := api.createDebate(t, true)
	votePath := "/api/debates/" + d.Debate.ID + "/vote"

	rr := api.do(t, http.MethodPost, votePath, gin.H{"option_ids": []string{}}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, votePath, gin.H{"option_ids": []string{"nope"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, votePath, gin.H{"option_ids": []string{d.Debate.Options[0].ID}, "extra": true}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "unknown fields are rejected")

	rr = api.do(t, http.MethodPost, votePath, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/debates/ffffffffffffffffffffffff/vote", gin.H{"option_ids": []string{"a"}}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/debates/not-an-id/vote", gin.H{"option_ids": []string{"a"}}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOpinions(t *testing.T) {
	api := newTestAPI(t, nil)
	d := api.createDebate(t, true)
	base := "/api/debates/" + d.Debate.ID

	rr := api.do(t, http.MethodPost, base+"/opinion", gin.H{"content": strings.Repeat("가", 1001)}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, base+"/opinion", gin.H{"content": strings.Repeat("가", 1000), "is_anonymous": true}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"message":"Opinion added"}`, rr.Body.String())

	rr = api.do(t, http.MethodGet, base+"/opinions", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page struct {
		Opinions []struct {
			AuthorNickname string `json:"author_nickname"`
		} `json:"opinions"`
		Total       int        `json:"total"`
		LastUpdated *time.Time `json:"last_updated"`
	}
	testutil.DecodeJSON(t, rr, &page)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "anonymous", page.Opinions[0].AuthorNickname)
	assert.NotNil(t, page.LastUpdated)
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (a *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/admin/auth", gin.H{"username": username, "password": password}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	}
	testutil.DecodeJSON(t, rr, &out)
	require.Equal(t, out.Token, out.AccessToken)
	return out.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAdminAuth(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodPost, "/api/admin/auth", gin.H{"username": superUser}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/admin/auth", gin.H{"username": superUser, "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"invalid username or password"}`, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/admin/auth", gin.H{"username": superUser, "password": superPass}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	access := findCookie(rr, middlewares.AdminTokenCookie)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, int((24 * time.Hour).Seconds()), access.MaxAge)
	refresh := findCookie(rr, middlewares.RefreshTokenCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), refresh.MaxAge)

	rr = api.do(t, http.MethodGet, "/api/admin/check-auth", nil, map[string]string{"Cookie": access.Name + "=" + access.Value})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"authenticated":true`)

	rr = api.do(t, http.MethodGet, "/api/admin/check-auth", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"authenticated":false,"user":null}`, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/admin/refresh", nil, map[string]string{"Cookie": refresh.Name + "=" + refresh.Value})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/admin/logout", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	cleared := findCookie(rr, middlewares.AdminTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAdminGuards(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodGet, "/api/admin/error-logs", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	super := api.login(t, superUser, superPass)
	rr = api.do(t, http.MethodGet, "/api/admin/error-logs", nil, bearer(super))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/admin/admins", gin.H{
		"username": "mod", "email": "mod@example.com", "password": "longpassword",
	}, bearer(super))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "longpassword")

	admin := api.login(t, "mod", "longpassword")
	rr = api.do(t, http.MethodGet, "/api/admin/admins", nil, bearer(admin))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/admin/debates", nil, bearer(admin))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminModeration(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, superUser, superPass)

	rr := api.do(t, http.MethodPost, "/api/questions", gin.H{"title": "Refund?", "content": "order 42", "password": "pw1234", "is_private": true}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		Question struct {
			ID string `json:"id"`
		} `json:"question"`
	}
	testutil.DecodeJSON(t, rr, &created)
	qPath := "/api/questions/" + created.Question.ID

	rr = api.do(t, http.MethodGet, qPath, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"locked":true`)

	rr = api.do(t, http.MethodGet, qPath, nil, bearer(token))
	assert.Contains(t, rr.Body.String(), "order 42", "admins see private content")

	rr = api.do(t, http.MethodPost, qPath+"/verify", gin.H{"password": "pw1234"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	rr = api.do(t, http.MethodPost, qPath+"/verify", gin.H{"password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = api.do(t, http.MethodGet, qPath+"/comments", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "comments of a private question stay locked")
	rr = api.do(t, http.MethodGet, qPath+"/comments", nil, map[string]string{controllers.QuestionPasswordHeader: "pw1234"})
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = api.do(t, http.MethodGet, qPath+"/comments", nil, bearer(token))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/admin/questions/"+created.Question.ID+"/answer", gin.H{"content": "Refunded."}, bearer(token))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"answered_by":"root"`)

	rr = api.do(t, http.MethodDelete, qPath, gin.H{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = api.do(t, http.MethodDelete, "/api/admin/questions/"+created.Question.ID, nil, bearer(token))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(t, http.MethodGet, qPath, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSurveyAuthorSession(t *testing.T) {
	api := newTestAPI(t, nil)
	rr := api.do(t, http.MethodPost, "/api/surveys", gin.H{
		"title":     "Team lunch",
		"password":  "pw1234",
		"questions": []gin.H{{"type": "short_text", "prompt": "Where?", "required": true}},
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		Survey struct {
			ID        string `json:"id"`
			Questions []struct {
				ID string `json:"id"`
			} `json:"questions"`
		} `json:"survey"`
	}
	testutil.DecodeJSON(t, rr, &created)
	id := created.Survey.ID
	base := "/api/surveys/" + id

	rr = api.do(t, http.MethodPost, base+"/verify", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = api.do(t, http.MethodPost, base+"/verify", gin.H{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = api.do(t, http.MethodPost, "/api/surveys/ffffffffffffffffffffffff/verify", gin.H{"password": "pw1234"}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(t, http.MethodPost, base+"/verify", gin.H{"password": "pw1234"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var session struct {
		AdminToken string    `json:"admin_token"`
		ExpiresAt  time.Time `json:"expires_at"`
	}
	testutil.DecodeJSON(t, rr, &session)
	assert.NotEmpty(t, session.AdminToken)
	cookie := findCookie(rr, controllers.SurveyAuthorCookie(id))
	require.NotNil(t, cookie)
	assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), cookie.MaxAge)

	answer := gin.H{"answers": []gin.H{{"question_id": created.Survey.Questions[0].ID, "value": "Noodles"}}}
	rr = api.do(t, http.MethodPost, base+"/responses", answer, fromIP("203.0.113.5"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = api.do(t, http.MethodPost, base+"/responses", answer, fromIP("203.0.113.5"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = api.do(t, http.MethodGet, base+"/has-responded", nil, fromIP("203.0.113.5"))
	assert.JSONEq(t, `{"has_responded":true}`, rr.Body.String())

	rr = api.do(t, http.MethodGet, base+"/results", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = api.do(t, http.MethodGet, base+"/results", nil, map[string]string{"Cookie": cookie.Name + "=" + cookie.Value})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Noodles")

	rr = api.do(t, http.MethodPut, base+"/status", gin.H{"status": "closed"}, bearer(session.AdminToken))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = api.do(t, http.MethodPost, base+"/responses", answer, fromIP("203.0.113.6"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestBoardAndGuestbook(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, superUser, superPass)

	rr := api.do(t, http.MethodPost, "/api/requests", gin.H{"title": "Dark mode", "content": "please", "password": "pw1234"}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var req struct {
		Request struct {
			ID string `json:"id"`
		} `json:"request"`
	}
	testutil.DecodeJSON(t, rr, &req)

	rr = api.do(t, http.MethodPut, "/api/admin/requests/"+req.Request.ID+"/status", gin.H{"status": "done"}, bearer(token))
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = api.do(t, http.MethodGet, "/api/requests?status=done", nil, nil)
	assert.Contains(t, rr.Body.String(), `"total":1`)

	rr = api.do(t, http.MethodPost, "/api/guestbook", gin.H{"content": "hello", "password": "pw1234"}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	var note struct {
		Note struct {
			ID string `json:"id"`
		} `json:"note"`
	}
	testutil.DecodeJSON(t, rr, &note)

	rr = api.do(t, http.MethodDelete, "/api/guestbook/"+note.Note.ID, gin.H{"password": "pw1234"}, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = api.do(t, http.MethodGet, "/api/guestbook", nil, nil)
	assert.Contains(t, rr.Body.String(), `"total":0`)
}

func TestRateLimitedVote(t *testing.T) {
	api := newTestAPI(t, ratelimit.NewLocalLimiter(ratelimit.Config{Limit: 1, Window: time.Minute}))
	d := api.createDebate(t, true)
	votePath := "/api/debates/" + d.Debate.ID + "/vote"

	rr := api.do(t, http.MethodPost, votePath, gin.H{"option_ids": []string{d.Debate.Options[0].ID}}, fromIP("203.0.113.1"))
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = api.do(t, http.MethodPost, votePath, gin.H{"option_ids": []string{d.Debate.Options[0].ID}}, fromIP("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestHealthAndNotFound(t *testing.T) {
	api := newTestAPI(t, nil)
	rr := api.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/nothing-here", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, rr.Body.String())

	rr = api.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealth_Degraded(t *testing.T) {
	r := gin.New()
	r.GET("/health", controllers.Health(map[string]controllers.Pinger{
		"mongo": controllers.PingFunc(func(context.Context) error { return nil }),
		"redis": controllers.PingFunc(func(context.Context) error { return errors.New("down") }),
	}))
	rr := testutil.MakeRequest(t, r, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"mongo":"ok","redis":"down"}}`, rr.Body.String())
}

func TestLiveResults(t *testing.T) {
	api := newTestAPI(t, nil)
	d := api.createDebate(t, true)
	srv := httptest.NewServer(api.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/debates/" + d.Debate.ID + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	readResults := func() services.Results {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		for {
			_, data, err := conn.ReadMessage()
			require.NoError(t, err)
			var ev live.Event
			require.NoError(t, json.Unmarshal(data, &ev))
			if ev.Type != services.EventResults {
				continue
			}
			var res services.Results
			require.NoError(t, json.Unmarshal(ev.Payload, &res))
			return res
		}
	}

	initial := readResults()
	assert.Equal(t, int64(0), initial.TotalVotes)

	rr := api.do(t, http.MethodPost, "/api/debates/"+d.Debate.ID+"/vote", gin.H{"option_ids": []string{d.Debate.Options[1].ID}}, fromIP("203.0.113.1"))
	require.Equal(t, http.StatusOK, rr.Code)

	update := readResults()
	assert.Equal(t, int64(1), update.TotalVotes)

	rr = api.do(t, http.MethodGet, "/api/debates/ffffffffffffffffffffffff/live", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
