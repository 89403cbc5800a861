package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/parrotops/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

func TestJournalStoreCreate(t *testing.T) {
	journal := NewJournalStore(openTestDB(t))
	ctx := context.Background()

	e, err := journal.Create(ctx, "lot.move", "L-1", "B-1 -> B-2", "ops@example.com")
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, "lot.move", e.Action)
	assert.Equal(t, "L-1", e.Subject)
	assert.Equal(t, "B-1 -> B-2", e.Detail)
	assert.Equal(t, "ops@example.com", e.Actor)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestJournalStoreGetByID_NotFound(t *testing.T) {
	journal := NewJournalStore(openTestDB(t))

	e, err := journal.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestJournalStoreListRecent(t *testing.T) {
	journal := NewJournalStore(openTestDB(t))
	ctx := context.Background()

	for _, subject := range []string{"L-1", "L-2", "L-3"} {
		_, err := journal.Create(ctx, "lot.create", subject, "", "")
		require.NoError(t, err)
	}

	entries, err := journal.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "L-3", entries[0].Subject)
	assert.Equal(t, "L-2", entries[1].Subject)
}

func TestJournalStoreListBySubject(t *testing.T) {
	journal := NewJournalStore(openTestDB(t))
	ctx := context.Background()

	_, err := journal.Create(ctx, "lot.create", "L-1", "", "")
	require.NoError(t, err)
	_, err = journal.Create(ctx, "bin.clean", "B-1", "cleaned=2", "")
	require.NoError(t, err)
	_, err = journal.Create(ctx, "lot.move", "L-1", "B-1 -> B-2", "")
	require.NoError(t, err)

	entries, err := journal.ListBySubject(ctx, "L-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "lot.move", entries[0].Action)
	assert.Equal(t, "lot.create", entries[1].Action)

	empty, err := journal.ListBySubject(ctx, "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
