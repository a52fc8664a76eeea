package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/keylet/waitlist-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.WaitlistEntry{}))

	return db
}

func TestRepository_CreateEntry_InsertIfAbsent(t *testing.T) {
	db := newTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	created, err := repo.CreateEntry(ctx, &models.WaitlistEntry{
		Email:    "new@example.com",
		Status:   models.StatusPending,
		Metadata: models.JSONMap{"source": "website"},
	})
	require.NoError(t, err)
	require.True(t, created)

	// Second insert for the same email hits the unique index and is a no-op,
	// not an error.
	created, err = repo.CreateEntry(ctx, &models.WaitlistEntry{
		Email:  "new@example.com",
		Status: models.StatusPending,
	})
	require.NoError(t, err)
	require.False(t, created)

	var count int64
	require.NoError(t, db.Model(&models.WaitlistEntry{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRepository_FindEntryByEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	entry, err := repo.FindEntryByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	require.Nil(t, entry)

	_, err = repo.CreateEntry(ctx, &models.WaitlistEntry{
		Email:  "Someone@Example.com",
		Status: models.StatusPending,
	})
	require.NoError(t, err)

	entry, err = repo.FindEntryByEmail(ctx, "Someone@Example.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NotZero(t, entry.ID)
	require.False(t, entry.Timestamp.IsZero())

	// Lookup is an exact, case-sensitive match.
	entry, err = repo.FindEntryByEmail(ctx, "someone@example.com")
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestRepository_GetAllEntries_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	emails := []string{"oldest@example.com", "middle@example.com", "newest@example.com"}

	for i, email := range emails {
		created, err := repo.CreateEntry(ctx, &models.WaitlistEntry{
			Email:     email,
			Status:    models.StatusPending,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.True(t, created)
	}

	entries, err := repo.GetAllEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, "newest@example.com", entries[0].Email)
	require.Equal(t, "middle@example.com", entries[1].Email)
	require.Equal(t, "oldest@example.com", entries[2].Email)

	for i := 1; i < len(entries); i++ {
		require.False(t, entries[i-1].Timestamp.Before(entries[i].Timestamp),
			"timestamps must be non-increasing")
	}
}
