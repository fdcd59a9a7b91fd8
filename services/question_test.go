package services

import (
	"context"
	"strings"
	"testing"

	"pollhub/models"
	"pollhub/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T) (*QuestionService, *CommentService) {
	t.Helper()
	questions := testutil.NewQuestionStore()
	return NewQuestionService(questions), NewCommentService(questions, testutil.NewCommentStore())
}

func TestQuestionPrivacy(t *testing.T) {
	qs, _ := newBoard(t)
	ctx := context.Background()

	q, err := qs.Create(ctx, CreateQuestionInput{Title: "Refund?", Content: "order 42", Password: "pw1234", IsPrivate: true})
	require.NoError(t, err)
	id := q.ID.Hex()

	list, err := qs.List(ctx, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, list.Questions, 1)
	assert.True(t, list.Questions[0].Locked)
	assert.Equal(t, "Refund?", list.Questions[0].Title)
	assert.Empty(t, list.Questions[0].Content)

	view, err := qs.Get(ctx, id, "", false)
	require.NoError(t, err)
	assert.True(t, view.Locked)
	assert.Equal(t, int64(1), view.ViewCount)

	view, err = qs.Get(ctx, id, "pw1234", false)
	require.NoError(t, err)
	assert.False(t, view.Locked)
	assert.Equal(t, "order 42", view.Content)

	view, err = qs.Get(ctx, id, "", true)
	require.NoError(t, err)
	assert.False(t, view.Locked)

	assert.NoError(t, qs.Verify(ctx, id, "pw1234"))
	assert.ErrorIs(t, qs.Verify(ctx, id, "nope"), ErrInvalidPassword)
	assert.Equal(t, 400, StatusCode(qs.Verify(ctx, id, "")))
	assert.Equal(t, 404, StatusCode(qs.Verify(ctx, "ffffffffffffffffffffffff", "pw1234")))
}

func TestQuestionTransitions(t *testing.T) {
	qs, _ := newBoard(t)
	ctx := context.Background()
	q, err := qs.Create(ctx, CreateQuestionInput{Title: "t", Content: "c", Password: "pw1234"})
	require.NoError(t, err)
	id := q.ID.Hex()
	assert.Equal(t, models.QuestionStatusPending, q.Status)

	answered, err := qs.Answer(ctx, id, "first", "root")
	require.NoError(t, err)
	assert.Equal(t, models.QuestionStatusAnswered, answered.Status)

	answered, err = qs.Answer(ctx, id, "second", "root")
	require.NoError(t, err)
	assert.Equal(t, "second", answered.Answer.Content, "re-answering replaces the answer")

	assert.Equal(t, 400, StatusCode(qs.SetStatus(ctx, id, models.QuestionStatusPending)))
	require.NoError(t, qs.SetStatus(ctx, id, models.QuestionStatusClosed))

	_, err = qs.Answer(ctx, id, "third", "root")
	assert.Equal(t, 400, StatusCode(err))
	assert.Equal(t, 400, StatusCode(qs.SetStatus(ctx, id, models.QuestionStatusAnswered)))

	list, err := qs.List(ctx, models.QuestionStatusClosed, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

func TestQuestionDelete(t *testing.T) {
	qs, _ := newBoard(t)
	ctx := context.Background()
	q, err := qs.Create(ctx, CreateQuestionInput{Title: "t", Content: "c", Password: "pw1234"})
	require.NoError(t, err)

	assert.ErrorIs(t, qs.Delete(ctx, q.ID.Hex(), "bad", false), ErrInvalidPassword)
	require.NoError(t, qs.Delete(ctx, q.ID.Hex(), "pw1234", false))
	_, err = qs.Get(ctx, q.ID.Hex(), "", true)
	assert.Equal(t, 404, StatusCode(err))
}

func TestComments(t *testing.T) {
	qs, cs := newBoard(t)
	ctx := context.Background()

	closed, err := qs.Create(ctx, CreateQuestionInput{Title: "t", Content: "c", Password: "pw1234", AllowComments: false})
	require.NoError(t, err)
	_, err = cs.AddComment(ctx, closed.ID.Hex(), CommentInput{Content: "hi", Password: "pw1234"}, QuestionAccess{}, "F")
	assert.Equal(t, 400, StatusCode(err))

	q, err := qs.Create(ctx, CreateQuestionInput{Title: "t", Content: "c", Password: "pw1234", AllowComments: true})
	require.NoError(t, err)
	id := q.ID.Hex()

	_, err = cs.AddComment(ctx, id, CommentInput{Content: strings.Repeat("a", 1001), Password: "pw1234"}, QuestionAccess{}, "F")
	assert.Equal(t, 400, StatusCode(err))

	c, err := cs.AddComment(ctx, id, CommentInput{Content: "first", Password: "pw1234"}, QuestionAccess{}, "F")
	require.NoError(t, err)
	_, err = cs.AddComment(ctx, id, CommentInput{Content: "second", Password: "pw1234", AuthorNickname: "lee"}, QuestionAccess{}, "F")
	require.NoError(t, err)

	got, err := qs.Get(ctx, id, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.CommentCount)

	assert.ErrorIs(t, cs.DeleteComment(ctx, id, c.ID.Hex(), "bad", false), ErrInvalidPassword)
	require.NoError(t, cs.DeleteComment(ctx, id, c.ID.Hex(), "pw1234", false))
	assert.Equal(t, 404, StatusCode(cs.DeleteComment(ctx, id, c.ID.Hex(), "", true)))
	assert.Equal(t, 404, StatusCode(cs.DeleteComment(ctx, closed.ID.Hex(), c.ID.Hex(), "", true)))

	page, err := cs.ListComments(ctx, id, QuestionAccess{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total, "deleted comments keep their place")

	got, err = qs.Get(ctx, id, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommentCount)
}

func TestComments_PrivateQuestion(t *testing.T) {
	qs, cs := newBoard(t)
	ctx := context.Background()

	q, err := qs.Create(ctx, CreateQuestionInput{Title: "t", Content: "c", Password: "pw1234", IsPrivate: true, AllowComments: true})
	require.NoError(t, err)
	id := q.ID.Hex()

	_, err = cs.AddComment(ctx, id, CommentInput{Content: "hi", Password: "pw9999"}, QuestionAccess{}, "F")
	assert.Equal(t, 401, StatusCode(err))
	_, err = cs.AddComment(ctx, id, CommentInput{Content: "hi", Password: "pw9999"}, QuestionAccess{Password: "wrong"}, "F")
	assert.Equal(t, 401, StatusCode(err))

	_, err = cs.AddComment(ctx, id, CommentInput{Content: "author reply", Password: "pw9999"}, QuestionAccess{Password: "pw1234"}, "F")
	require.NoError(t, err)

	_, err = cs.ListComments(ctx, id, QuestionAccess{}, 1, 10)
	assert.Equal(t, 401, StatusCode(err))

	page, err := cs.ListComments(ctx, id, QuestionAccess{Password: "pw1234"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "author reply", page.Comments[0].Content)

	page, err = cs.ListComments(ctx, id, QuestionAccess{IsAdmin: true}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
