// Package storetest holds the behavioural suite every store.TopicStore
// implementation must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventspace/models"
	"ventspace/store"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.TopicStore

// Run executes the suite. missingID must return a well-formed id that no
// stored topic has.
func Run(t *testing.T, newStore Factory, missingID func() string) {
	t.Run("Insert", func(t *testing.T) { testInsert(t, newStore(t)) })
	t.Run("FindByID_NotFound", func(t *testing.T) { testFindByIDNotFound(t, newStore(t), missingID()) })
	t.Run("ToggleVote_Sequence", func(t *testing.T) { testToggleSequence(t, newStore(t)) })
	t.Run("ToggleVote_KeepsOtherVoters", func(t *testing.T) { testToggleKeepsOthers(t, newStore(t)) })
	t.Run("ToggleVote_ConcurrentVoters", func(t *testing.T) { testConcurrentVoters(t, newStore(t)) })
	t.Run("AppendComment_Order", func(t *testing.T) { testCommentOrder(t, newStore(t)) })
	t.Run("IncrementReports_Concurrent", func(t *testing.T) { testConcurrentReports(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("Mutations_NotFound", func(t *testing.T) { testMutationsNotFound(t, newStore(t), missingID()) })
	t.Run("FindRecent", func(t *testing.T) { testFindRecent(t, newStore(t)) })
}

var base = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

func insert(t *testing.T, s store.TopicStore, content string, at time.Time) *models.Topic {
	t.Helper()
	created, err := s.Insert(context.Background(), &models.Topic{
		Content:   content,
		Mood:      models.MoodSad,
		Mode:      models.ModeVent,
		UserID:    "owner-1",
		CreatedAt: at,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	return created
}

func testInsert(t *testing.T, s store.TopicStore) {
	ctx := context.Background()
	created := insert(t, s, "I need a break", base)

	assert.Empty(t, created.Votes)
	assert.NotNil(t, created.Votes)
	assert.NotNil(t, created.Comments)
	assert.Zero(t, created.ReportCount)

	got, err := s.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "I need a break", got.Content)
	assert.Equal(t, models.MoodSad, got.Mood)
	assert.Equal(t, models.ModeVent, got.Mode)
	assert.Equal(t, "owner-1", got.UserID)
	assert.True(t, base.Equal(got.CreatedAt), "createdAt %s != %s", got.CreatedAt, base)
	assert.Empty(t, got.Votes)
	assert.Empty(t, got.Comments)

	other := insert(t, s, "second", base)
	assert.NotEqual(t, created.ID, other.ID)
}

func testFindByIDNotFound(t *testing.T, s store.TopicStore, missing string) {
	ctx := context.Background()
	for _, id := range []string{missing, "not-an-id", ""} {
		_, err := s.FindByID(ctx, id)
		assert.ErrorIs(t, err, models.ErrNotFound, "id %q", id)
	}
}

func testToggleSequence(t *testing.T, s store.TopicStore) {
	ctx := context.Background()
	topic := insert(t, s, "toggle me", base)

	steps := []struct {
		vote          models.VoteType
		agree, differ int
	}{
		{models.VoteAgree, 1, 0},
		{models.VoteAgree, 0, 0},
		{models.VoteDisagree, 0, 1},
		{models.VoteAgree, 1, 0},
		{models.VoteDisagree, 0, 1},
		{models.VoteDisagree, 0, 0},
	}
	for i, step := range steps {
		got, err := s.ToggleVote(ctx, topic.ID, "voter-1", step.vote)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.agree, got.AgreeCount(), "agree after step %d", i)
		assert.Equal(t, step.differ, got.DisagreeCount(), "disagree after step %d", i)
		assert.LessOrEqual(t, len(got.Votes), 1, "one vote per voter after step %d", i)
	}

	got, err := s.FindByID(ctx, topic.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Votes)
}

func testToggleKeepsOthers(t *testing.T, s store.TopicStore) {
	ctx := context.Background()
	topic := insert(t, s, "many voters", base)

	_, err := s.ToggleVote(ctx, topic.ID, "a", models.VoteAgree)
	require.NoError(t, err)
	_, err = s.ToggleVote(ctx, topic.ID, "b", models.VoteDisagree)
	require.NoError(t, err)
	_, err = s.ToggleVote(ctx, topic.ID, "c", models.VoteAgree)
	require.NoError(t, err)

	got, err := s.ToggleVote(ctx, topic.ID, "b", models.VoteAgree)
	require.NoError(t, err)
	assert.Equal(t, []models.Vote{
		{UserID: "a", Type: models.VoteAgree},
		{UserID: "b", Type: models.VoteAgree},
		{UserID: "c", Type: models.VoteAgree},
	}, got.Votes)

	got, err = s.ToggleVote(ctx, topic.ID, "a", models.VoteAgree)
	require.NoError(t, err)
	assert.Equal(t, []models.Vote{
		{UserID: "b", Type: models.VoteAgree},
		{UserID: "c", Type: models.VoteAgree},
	}, got.Votes)
}

func testConcurrentVoters(t *testing.T, s store.TopicStore) {
	ctx := context.Background()
	topic := insert(t, s, "pile on", base)

	const voters = 25
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := models.VoteAgree
			if i%2 == 1 {
				kind = models.VoteDisagree
			}
			_, err := s.ToggleVote(ctx, topic.ID, fmt.Sprintf("voter-%d", i), kind)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.FindByID(ctx, topic.ID)
	require.NoError(t, err)
	assert.Len(t, got.Votes, voters)
	assert.Equal(t, 13, got.AgreeCount())
	assert.Equal(t, 12, got.DisagreeCount())
}

func testCommentOrder(t *testing.T, s store.TopicStore) {
	ctx := context.Background()
	topic := insert(t, s, "talk to me", base)

	texts := []string{"first", "second", "third"}
	for i, text := range texts {
		got, err := s.AppendComment(ctx, topic.ID, models.Comment{
			Text:      text,
			UserID:    fmt.Sprintf("author-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		assert.Len(t, got.Comments, i+1)
	}

	got, err := s.FindByID(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, len(texts))
	for i, c := range got.Comments {
		assert.Equal(t, texts[i], c.Text)
		assert.Equal(t, fmt.Sprintf("author-%d", i), c.UserID)
		assert.True(t, base.Add(time.Duration(i)*time.Second).Equal(c.Timestamp))
	}
}

func testConcurrentReports(t *testing.T, s store.TopicStore) {
	ctx := context.Background()
	topic := insert(t, s, "report me", base)

	const reports = 10
	var wg sync.WaitGroup
	for i := 0; i < reports; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementReports(ctx, topic.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.IncrementReports(ctx, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, reports+1, got.ReportCount)
}

func testDelete(t *testing.T, s store.TopicStore) {
	ctx := context.Background()
	keep := insert(t, s, "keep", base)
	gone := insert(t, s, "gone", base.Add(time.Second))

	_, err := s.AppendComment(ctx, gone.ID, models.Comment{Text: "bye", UserID: "x", Timestamp: base})
	require.NoError(t, err)
	_, err = s.ToggleVote(ctx, gone.ID, "x", models.VoteAgree)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, gone.ID))

	_, err = s.FindByID(ctx, gone.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, gone.ID), models.ErrNotFound)

	_, err = s.FindByID(ctx, keep.ID)
	assert.NoError(t, err)

	recent, err := s.FindRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, keep.ID, recent[0].ID)
}

func testMutationsNotFound(t *testing.T, s store.TopicStore, missing string) {
	ctx := context.Background()
	for _, id := range []string{missing, "not-an-id"} {
		_, err := s.ToggleVote(ctx, id, "v", models.VoteAgree)
		assert.ErrorIs(t, err, models.ErrNotFound, "vote %q", id)

		_, err = s.AppendComment(ctx, id, models.Comment{Text: "hi", UserID: "v", Timestamp: base})
		assert.ErrorIs(t, err, models.ErrNotFound, "comment %q", id)

		_, err = s.IncrementReports(ctx, id)
		assert.ErrorIs(t, err, models.ErrNotFound, "report %q", id)

		assert.ErrorIs(t, s.Delete(ctx, id), models.ErrNotFound, "delete %q", id)
	}
}

func testFindRecent(t *testing.T, s store.TopicStore) {
	ctx := context.Background()

	empty, err := s.FindRecent(ctx, 20)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	oldest := insert(t, s, "oldest", base)
	middle := insert(t, s, "middle", base.Add(time.Minute))
	newest := insert(t, s, "newest", base.Add(2*time.Minute))

	_, err = s.ToggleVote(ctx, middle.ID, "v", models.VoteDisagree)
	require.NoError(t, err)

	two, err := s.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, newest.ID, two[0].ID)
	assert.Equal(t, middle.ID, two[1].ID)
	assert.Equal(t, 1, two[1].DisagreeCount())

	all, err := s.FindRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, oldest.ID, all[2].ID)
}
