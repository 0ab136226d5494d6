package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mock-interview/internal/types"
)

// seedable is a backend whose clock and interviews tests can control
type seedable interface {
	Backend
	setClock(func() time.Time)
	seedInterview(t *testing.T, iv types.Interview)
	count(t *testing.T) int
}

func sampleFeedback(score float64) *types.Feedback {
	return &types.Feedback{
		TotalScore: score,
		CategoryScores: []types.CategoryScore{
			{Name: "Communication Skills", Score: 85, Comment: "Clear"},
			{Name: "Problem Solving", Score: 70.5, Comment: "Methodical"},
		},
		Strengths:           []string{"clear communication", "relevant experience"},
		AreasForImprovement: []string{"limited detail", "no metrics"},
		FinalAssessment:     "Solid candidate.",
	}
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// runBackendContract exercises the behaviour every backend shares
func runBackendContract(t *testing.T, newBackend func(t *testing.T) seedable) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		b := newBackend(t)
		clock := &fixedClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
		b.setClock(clock.now)

		id, err := b.Save(ctx, "int-1", "user-1", sampleFeedback(82), "")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := b.FindByInterviewAndUser(ctx, "int-1", "user-1")
		require.NoError(t, err)
		require.NotNil(t, doc)

		rec, err := doc.Decode()
		require.NoError(t, err)
		want := types.NewFeedbackRecord(id, "int-1", "user-1", sampleFeedback(82), clock.t)
		assert.Equal(t, want, rec)
	})

	t.Run("not found", func(t *testing.T) {
		b := newBackend(t)
		doc, err := b.FindByInterviewAndUser(ctx, "int-404", "user-1")
		assert.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("overwrite is idempotent", func(t *testing.T) {
		b := newBackend(t)

		_, err := b.Save(ctx, "int-1", "user-1", sampleFeedback(50), "fb-fixed")
		require.NoError(t, err)
		id, err := b.Save(ctx, "int-1", "user-1", sampleFeedback(91), "fb-fixed")
		require.NoError(t, err)
		assert.Equal(t, "fb-fixed", id)

		assert.Equal(t, 1, b.count(t))
		doc, err := b.FindByInterviewAndUser(ctx, "int-1", "user-1")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "fb-fixed", doc.ID)
		assert.Equal(t, float64(91), doc.Fields["totalScore"])
	})

	t.Run("unknown feedback id is created", func(t *testing.T) {
		b := newBackend(t)
		id, err := b.Save(ctx, "int-1", "user-1", sampleFeedback(60), "never-seen")
		require.NoError(t, err)
		assert.Equal(t, "never-seen", id)

		doc, err := b.FindByInterviewAndUser(ctx, "int-1", "user-1")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "never-seen", doc.ID)
	})

	t.Run("newest attempt wins", func(t *testing.T) {
		b := newBackend(t)
		clock := &fixedClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
		b.setClock(clock.now)

		_, err := b.Save(ctx, "int-1", "user-1", sampleFeedback(40), "")
		require.NoError(t, err)
		clock.advance(time.Minute)
		newest, err := b.Save(ctx, "int-1", "user-1", sampleFeedback(75), "")
		require.NoError(t, err)
		_, err = b.Save(ctx, "int-1", "user-2", sampleFeedback(99), "")
		require.NoError(t, err)

		doc, err := b.FindByInterviewAndUser(ctx, "int-1", "user-1")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, newest, doc.ID)
		assert.Equal(t, float64(75), doc.Fields["totalScore"])
	})

	t.Run("overwrite moves index", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.Save(ctx, "int-1", "user-1", sampleFeedback(50), "fb-move")
		require.NoError(t, err)
		_, err = b.Save(ctx, "int-2", "user-1", sampleFeedback(60), "fb-move")
		require.NoError(t, err)

		old, err := b.FindByInterviewAndUser(ctx, "int-1", "user-1")
		require.NoError(t, err)
		assert.Nil(t, old)
		moved, err := b.FindByInterviewAndUser(ctx, "int-2", "user-1")
		require.NoError(t, err)
		require.NotNil(t, moved)
	})

	t.Run("interviews", func(t *testing.T) {
		b := newBackend(t)
		base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		b.seedInterview(t, types.Interview{ID: "a", UserID: "alice", Role: "Backend", Finalized: true, CreatedAt: base})
		b.seedInterview(t, types.Interview{ID: "b", UserID: "alice", Role: "Frontend", Finalized: false, CreatedAt: base.Add(time.Hour)})
		b.seedInterview(t, types.Interview{ID: "c", UserID: "bob", Role: "SRE", Finalized: true, CreatedAt: base.Add(2 * time.Hour)})
		b.seedInterview(t, types.Interview{ID: "d", UserID: "carol", Role: "Data", Finalized: true, CreatedAt: base.Add(3 * time.Hour)})

		iv, err := b.GetInterview(ctx, "a")
		require.NoError(t, err)
		require.NotNil(t, iv)
		assert.Equal(t, "Backend", iv.Role)

		missing, err := b.GetInterview(ctx, "zzz")
		assert.NoError(t, err)
		assert.Nil(t, missing)

		mine, err := b.ListInterviewsByUser(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, "b", mine[0].ID)
		assert.Equal(t, "a", mine[1].ID)

		latest, err := b.ListLatestInterviews(ctx, "alice", 0)
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, "d", latest[0].ID)
		assert.Equal(t, "c", latest[1].ID)

		limited, err := b.ListLatestInterviews(ctx, "bob", 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "d", limited[0].ID)

		none, err := b.ListInterviewsByUser(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}
