package feedback

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment_TrimsAndStores(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewCommentService(store, nil)

	comment, err := svc.Create(context.Background(), incident, user, "  still blocked near the bridge  ")
	require.NoError(t, err)
	assert.Equal(t, "still blocked near the bridge", comment.Content)
	assert.True(t, comment.Active)
}

func TestCreateComment_LengthBounds(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewCommentService(store, nil)

	_, err := svc.Create(context.Background(), incident, user, "hi")
	assert.True(t, IsKind(err, KindInvalidInput), "too short: got %v", err)

	// Whitespace padding does not rescue a short comment.
	_, err = svc.Create(context.Background(), incident, user, "   ok    ")
	assert.True(t, IsKind(err, KindInvalidInput), "short after trim: got %v", err)

	_, err = svc.Create(context.Background(), incident, user, strings.Repeat("a", 1001))
	assert.True(t, IsKind(err, KindInvalidInput), "too long: got %v", err)
}

func TestCreateComment_ModerationHook(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	reject := func(content string) bool { return !strings.Contains(content, "blocked-word") }
	svc := NewCommentService(store, reject)

	_, err := svc.Create(context.Background(), incident, user, "this has a blocked-word inside")
	assert.True(t, IsKind(err, KindInvalidInput), "got %v", err)

	_, err = svc.Create(context.Background(), incident, user, "perfectly fine comment")
	require.NoError(t, err)
}

func TestRejectMarkup(t *testing.T) {
	moderate := RejectMarkup()
	assert.True(t, moderate("plain text about traffic"))
	assert.False(t, moderate(`<script>alert("x")</script>`))
	assert.False(t, moderate(`nice <a href="http://spam">deal</a>`))
}

func TestCreateComment_SpamGuard(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewCommentService(store, nil)

	base := time.Now()
	store.clock = func() time.Time { return base }
	svc.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), incident, user, "update: lane still closed")
		require.NoError(t, err, "comment %d", i+1)
	}
	_, err := svc.Create(context.Background(), incident, user, "another update right away")
	assert.True(t, IsKind(err, KindRateLimited), "fourth within a minute: got %v", err)

	// A minute later the window has passed.
	later := base.Add(61 * time.Second)
	store.clock = func() time.Time { return later }
	svc.now = func() time.Time { return later }
	_, err = svc.Create(context.Background(), incident, user, "much later update")
	require.NoError(t, err)
}

func TestCreateComment_SpamGuardIsPerUserAndIncident(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	otherIncident := store.addIncident()
	user := store.addUser()
	other := store.addUser()
	svc := NewCommentService(store, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), incident, user, "rapid fire comment")
		require.NoError(t, err)
	}

	_, err := svc.Create(context.Background(), incident, other, "different user is fine")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), otherIncident, user, "different incident is fine")
	require.NoError(t, err)
}

func TestUpdateComment_EditWindow(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewCommentService(store, nil)

	created := time.Now()
	store.clock = func() time.Time { return created }
	svc.now = func() time.Time { return created }

	comment, err := svc.Create(context.Background(), incident, user, "initial report text")
	require.NoError(t, err)

	svc.now = func() time.Time { return created.Add(29 * time.Minute) }
	updated, err := svc.Update(context.Background(), comment.ID, user, "corrected report text")
	require.NoError(t, err)
	assert.Equal(t, "corrected report text", updated.Content)

	svc.now = func() time.Time { return created.Add(31 * time.Minute) }
	_, err = svc.Update(context.Background(), comment.ID, user, "way too late edit")
	assert.True(t, IsKind(err, KindExpired), "got %v", err)
}

func TestUpdateComment_Ownership(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	owner := store.addUser()
	other := store.addUser()
	svc := NewCommentService(store, nil)

	comment, err := svc.Create(context.Background(), incident, owner, "owner's comment here")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), comment.ID, other, "hijacked content text")
	assert.True(t, IsKind(err, KindForbidden), "got %v", err)

	got, err := store.CommentByID(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner's comment here", got.Content)
}

func TestUpdateComment_RevalidatesContent(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewCommentService(store, nil)

	comment, err := svc.Create(context.Background(), incident, user, "valid starting content")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), comment.ID, user, "x")
	assert.True(t, IsKind(err, KindInvalidInput), "got %v", err)
}

func TestDeleteComment_NoEditWindow(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewCommentService(store, nil)

	created := time.Now()
	store.clock = func() time.Time { return created }
	comment, err := svc.Create(context.Background(), incident, user, "will be deleted much later")
	require.NoError(t, err)

	// Deletion works long after the edit window closed.
	svc.now = func() time.Time { return created.Add(48 * time.Hour) }
	require.NoError(t, svc.Delete(context.Background(), comment.ID, user))

	got, err := store.CommentByID(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	// Updating a deleted comment reports not found.
	_, err = svc.Update(context.Background(), comment.ID, user, "necromancy attempt here")
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}

func TestDeleteComment_Ownership(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	owner := store.addUser()
	other := store.addUser()
	svc := NewCommentService(store, nil)

	comment, err := svc.Create(context.Background(), incident, owner, "comment to protect")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), comment.ID, other)
	assert.True(t, IsKind(err, KindForbidden), "got %v", err)
	got, err := store.CommentByID(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestListComments_FiltersAndPaging(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewCommentService(store, nil)

	base := time.Now()
	texts := []string{
		"Heavy TRAFFIC near the exit",
		"road cleared after an hour",
		"traffic easing up a little",
	}
	for i, text := range texts {
		at := base.Add(time.Duration(i) * 2 * time.Minute)
		store.clock = func() time.Time { return at }
		svc.now = func() time.Time { return at }
		_, err := svc.Create(context.Background(), incident, user, text)
		require.NoError(t, err)
	}

	// Case-insensitive substring search.
	comments, total, err := svc.ListByIncident(context.Background(), incident, ListCommentsOptions{Search: "traffic"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, comments, 2)
	assert.Equal(t, "traffic easing up a little", comments[0].Content, "newest first")

	// Since is an inclusive lower bound.
	since := base.Add(2 * time.Minute)
	comments, total, err = svc.ListByIncident(context.Background(), incident, ListCommentsOptions{Since: &since})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, comments, 2)

	// Page size defaults to 20; explicit paging slices the result.
	comments, total, err = svc.ListByIncident(context.Background(), incident, ListCommentsOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, comments, 1)
	assert.Equal(t, "Heavy TRAFFIC near the exit", comments[0].Content)
}

func TestListComments_ExcludesInactive(t *testing.T) {
	store := newMemStore()
	incident := store.addIncident()
	user := store.addUser()
	svc := NewCommentService(store, nil)

	keep, err := svc.Create(context.Background(), incident, user, "comment that stays")
	require.NoError(t, err)
	gone, err := svc.Create(context.Background(), incident, user, "comment that goes")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), gone.ID, user))

	comments, total, err := svc.ListByIncident(context.Background(), incident, ListCommentsOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, comments, 1)
	assert.Equal(t, keep.ID, comments[0].ID)
}

func TestListComments_UnknownIncident(t *testing.T) {
	store := newMemStore()
	svc := NewCommentService(store, nil)

	_, _, err := svc.ListByIncident(context.Background(), uuid.New(), ListCommentsOptions{})
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)
}
