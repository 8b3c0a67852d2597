package announcement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/announcement"
	cachesvc "github.com/trezcool/campus/services/cache"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	"github.com/trezcool/campus/testutil"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	clock := testutil.Clock()
	repo := inmemdb.NewAnnouncementRepository(inmemdb.Open())
	cache := cachesvc.NewMemoryCache(time.Minute, clock)
	svc := announcement.NewService(repo, cache, testutil.Logger(), clock)
	admin := core.UserRef{ID: "admin-id", Username: "admin"}

	exam, err := svc.Create(ctx, admin, announcement.NewAnnouncement{Title: "Exams", Content: "Next week", Category: announcement.CategoryExam})
	require.NoError(t, err)
	assert.NotEmpty(t, exam.ID)
	assert.Equal(t, testutil.Epoch, exam.CreatedAt)
	assert.Equal(t, admin, exam.CreatedBy)

	clock.Advance(time.Hour)
	party, err := svc.Create(ctx, admin, announcement.NewAnnouncement{Title: "Party", Content: "Friday", Category: announcement.CategoryEvent})
	require.NoError(t, err)

	t.Run("query newest first", func(t *testing.T) {
		list, err := svc.Query(ctx, announcement.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, party.ID, list[0].ID)
		assert.Equal(t, exam.ID, list[1].ID)

		var cached []announcement.Announcement
		found, err := cache.Get(ctx, "announcements:list", &cached)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Len(t, cached, 2)
	})

	t.Run("query by category bypasses the cache", func(t *testing.T) {
		list, err := svc.Query(ctx, announcement.QueryFilter{Category: announcement.CategoryExam})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, exam.ID, list[0].ID)
	})

	t.Run("update keeps empty fields and invalidates", func(t *testing.T) {
		clock.Advance(time.Minute)
		got, err := svc.Update(ctx, exam.ID, announcement.UpdateAnnouncement{Title: "Final exams"})
		require.NoError(t, err)
		assert.Equal(t, "Final exams", got.Title)
		assert.Equal(t, "Next week", got.Content)
		assert.Equal(t, announcement.CategoryExam, got.Category)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))

		var cached []announcement.Announcement
		found, err := cache.Get(ctx, "announcements:list", &cached)
		require.NoError(t, err)
		assert.False(t, found)

		list, err := svc.Query(ctx, announcement.QueryFilter{})
		require.NoError(t, err)
		assert.Equal(t, "Final exams", list[1].Title)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, party.ID))
		list, err := svc.Query(ctx, announcement.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)

		_, err = svc.Get(ctx, party.ID)
		assert.True(t, core.IsNotFound(err))
		assert.True(t, core.IsNotFound(svc.Delete(ctx, party.ID)))
		_, err = svc.Update(ctx, party.ID, announcement.UpdateAnnouncement{Title: "x"})
		assert.True(t, core.IsNotFound(err))
	})
}

func TestNewAnnouncement_Validate(t *testing.T) {
	validate := testutil.Validator()

	tests := []struct {
		name    string
		na      announcement.NewAnnouncement
		wantErr bool
	}{
		{name: "valid", na: announcement.NewAnnouncement{Title: " Exams ", Content: "soon", Category: "Exam"}},
		{name: "blank title", na: announcement.NewAnnouncement{Title: "   ", Content: "soon", Category: "Exam"}, wantErr: true},
		{name: "missing content", na: announcement.NewAnnouncement{Title: "Exams", Category: "Exam"}, wantErr: true},
		{name: "bad category", na: announcement.NewAnnouncement{Title: "Exams", Content: "soon", Category: "Sports"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.na.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "Exams", tt.na.Title)
		})
	}
}
